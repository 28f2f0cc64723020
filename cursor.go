package dynaexpr

import (
	"bytes"
	"encoding/base64"
	"encoding/gob"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func init() {
	// Register DynamoDB types with gob
	gob.Register(map[string]types.AttributeValue{})
	gob.Register(&types.AttributeValueMemberS{})
	gob.Register(&types.AttributeValueMemberN{})
	gob.Register(&types.AttributeValueMemberB{})
	gob.Register(&types.AttributeValueMemberSS{})
	gob.Register(&types.AttributeValueMemberNS{})
	gob.Register(&types.AttributeValueMemberM{})
	gob.Register(&types.AttributeValueMemberL{})
	gob.Register(&types.AttributeValueMemberNULL{})
	gob.Register(&types.AttributeValueMemberBOOL{})
}

// EncodeCursor converts a query's last evaluated key into an opaque, URL safe
// token to hand to clients. A nil or empty key yields an empty token.
func EncodeCursor(lastKey Item) (string, error) {
	if len(lastKey) == 0 {
		return "", nil
	}
	if _, err := DecodeItem(lastKey); err != nil {
		return "", fmt.Errorf("failed to encode cursor: %w", err)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(lastKey); err != nil {
		return "", fmt.Errorf("failed to encode cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeCursor converts a token produced by [EncodeCursor] back into a start key
// for [Query.StartKey]. An empty token yields a nil key.
func DecodeCursor(cursor string) (Item, error) {
	if cursor == "" {
		return nil, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, invalidArgument("decode cursor", "", cursor, "malformed cursor")
	}

	var key map[string]types.AttributeValue
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&key); err != nil {
		return nil, invalidArgument("decode cursor", "", cursor, "malformed cursor")
	}
	return key, nil
}
