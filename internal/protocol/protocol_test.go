package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payload := []byte(`{"username":"abebe"}`)
	data, err := Encode(KindLogin, 7, 0, payload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(data) != HeaderSize+len(payload) {
		t.Fatalf("frame length = %d, want %d", len(data), HeaderSize+len(payload))
	}

	f, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if f.Kind != KindLogin || f.SenderID != 7 || f.TargetID != 0 {
		t.Errorf("header = (%v, %d, %d), want (login, 7, 0)", f.Kind, f.SenderID, f.TargetID)
	}
	if !bytes.Equal(f.Payload, payload) {
		t.Errorf("payload = %q, want %q", f.Payload, payload)
	}
}

func TestEncodeRejectsOversizedPayload(t *testing.T) {
	_, err := Encode(KindGameState, 1, 2, make([]byte, MaxPayload+1))
	if !errors.Is(err, ErrMalformedFrame) {
		t.Fatalf("err = %v, want ErrMalformedFrame", err)
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"short header", make([]byte, HeaderSize-1)},
		{"truncated payload", func() []byte {
			b := make([]byte, HeaderSize)
			binary.BigEndian.PutUint32(b[12:16], 10)
			return b
		}()},
		{"oversized declared length", func() []byte {
			b := make([]byte, HeaderSize)
			binary.BigEndian.PutUint32(b[12:16], MaxPayload+1)
			return b
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.data); !errors.Is(err, ErrMalformedFrame) {
				t.Errorf("err = %v, want ErrMalformedFrame", err)
			}
		})
	}
}

func TestReadFrameStream(t *testing.T) {
	first, _ := Encode(KindRollDice, 3, 0, nil)
	second, _ := Encode(KindHeartbeat, 3, 0, []byte(`{}`))
	r := bytes.NewReader(append(first, second...))

	f1, err := ReadFrame(r)
	if err != nil {
		t.Fatalf("first frame: %v", err)
	}
	if f1.Kind != KindRollDice || len(f1.Payload) != 0 {
		t.Errorf("first frame = %+v", f1)
	}

	f2, err := ReadFrame(r)
	if err != nil {
		t.Fatalf("second frame: %v", err)
	}
	if f2.Kind != KindHeartbeat || string(f2.Payload) != `{}` {
		t.Errorf("second frame = %+v", f2)
	}

	if _, err := ReadFrame(r); err != io.EOF {
		t.Errorf("at stream end err = %v, want io.EOF", err)
	}
}

func TestReadFrameOversized(t *testing.T) {
	b := make([]byte, HeaderSize)
	binary.BigEndian.PutUint32(b[12:16], MaxPayload+100)
	if _, err := ReadFrame(bytes.NewReader(b)); !errors.Is(err, ErrMalformedFrame) {
		t.Errorf("err = %v, want ErrMalformedFrame", err)
	}
}
