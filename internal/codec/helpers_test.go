package codec

import (
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

func mustMsgpack(t *testing.T, p msgpackPayload) []byte {
	t.Helper()
	data, err := msgpack.Marshal(&p)
	if err != nil {
		t.Fatal(err)
	}
	return data
}
