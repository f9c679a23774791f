package serialization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type order struct {
	ID     string `json:"id"`
	Amount int    `json:"amount"`
}

func TestJSONSerializer(t *testing.T) {
	serializer := NewJSONSerializer()

	t.Run("round trips a struct", func(t *testing.T) {
		data, err := serializer.Serialize(order{ID: "a1", Amount: 3})
		require.NoError(t, err)

		var decoded order
		require.NoError(t, serializer.Deserialize(data, &decoded))
		assert.Equal(t, order{ID: "a1", Amount: 3}, decoded)
	})

	t.Run("nil value serializes to nil bytes", func(t *testing.T) {
		data, err := serializer.Serialize(nil)
		require.NoError(t, err)
		assert.Nil(t, data)
	})

	t.Run("empty input leaves target untouched", func(t *testing.T) {
		decoded := order{ID: "keep"}
		require.NoError(t, serializer.Deserialize(nil, &decoded))
		assert.Equal(t, "keep", decoded.ID)
	})

	t.Run("unmarshalable value returns an error", func(t *testing.T) {
		_, err := serializer.Serialize(make(chan int))
		assert.Error(t, err)
	})
}

func TestRawSerializer(t *testing.T) {
	serializer := &RawSerializer{}

	t.Run("passes bytes and strings through", func(t *testing.T) {
		data, err := serializer.Serialize([]byte("abc"))
		require.NoError(t, err)
		assert.Equal(t, []byte("abc"), data)

		data, err = serializer.Serialize("xyz")
		require.NoError(t, err)
		assert.Equal(t, []byte("xyz"), data)
	})

	t.Run("rejects other types", func(t *testing.T) {
		_, err := serializer.Serialize(42)
		assert.Error(t, err)
	})

	t.Run("deserializes into byte and string targets", func(t *testing.T) {
		var b []byte
		require.NoError(t, serializer.Deserialize([]byte("abc"), &b))
		assert.Equal(t, []byte("abc"), b)

		var s string
		require.NoError(t, serializer.Deserialize([]byte("xyz"), &s))
		assert.Equal(t, "xyz", s)
	})

	t.Run("rejects other targets", func(t *testing.T) {
		var n int
		assert.Error(t, serializer.Deserialize([]byte("1"), &n))
	})
}
