package dynaexpr

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"
)

func TestCursor_RoundTrip(t *testing.T) {
	lastKey := Item{
		"pk":    str("customer#1"),
		"sk":    &types.AttributeValueMemberN{Value: "42"},
		"gsi":   &types.AttributeValueMemberB{Value: []byte{0xde, 0xad}},
		"extra": &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{"n": &types.AttributeValueMemberNULL{Value: true}}},
	}

	cursor, err := EncodeCursor(lastKey)
	require.NoError(t, err)
	require.NotEmpty(t, cursor)
	require.NotContains(t, cursor, "=")
	require.NotContains(t, cursor, "+")
	require.NotContains(t, cursor, "/")

	decoded, err := DecodeCursor(cursor)
	require.NoError(t, err)
	require.Equal(t, lastKey, decoded)
}

func TestCursor_Empty(t *testing.T) {
	cursor, err := EncodeCursor(nil)
	require.NoError(t, err)
	require.Empty(t, cursor)

	key, err := DecodeCursor("")
	require.NoError(t, err)
	require.Nil(t, key)
}

func TestCursor_Invalid(t *testing.T) {
	_, err := EncodeCursor(Item{"blobs": &types.AttributeValueMemberBS{Value: [][]byte{{1}}}})
	require.ErrorIs(t, err, ErrDecode)

	for _, cursor := range []string{"not base64!", "aGVsbG8"} {
		_, err := DecodeCursor(cursor)
		require.ErrorIs(t, err, ErrInvalidArgument, cursor)
	}
}
