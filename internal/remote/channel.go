package remote

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// maxMessageSize bounds a single framed message. Resource payloads ride
// inside deltas, so the bound is generous, but a corrupted or hostile
// length prefix must not make us allocate gigabytes.
const maxMessageSize = 64 << 20

// writeMessage frames v as JSON behind an 8-byte little-endian length
// prefix.
func writeMessage(w io.Writer, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	var prefix [8]byte
	binary.LittleEndian.PutUint64(prefix[:], uint64(len(body)))
	if _, err := w.Write(prefix[:]); err != nil {
		return fmt.Errorf("write message length: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("write message body: %w", err)
	}
	return nil
}

// readMessage reads one length-prefixed JSON message into v. It returns
// io.EOF untouched when the channel closes cleanly between messages.
func readMessage(r io.Reader, v any) error {
	var prefix [8]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return fmt.Errorf("read message length: %w", err)
	}

	size := binary.LittleEndian.Uint64(prefix[:])
	if size > maxMessageSize {
		return fmt.Errorf("message of %d bytes exceeds limit of %d", size, maxMessageSize)
	}

	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return fmt.Errorf("read message body: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	return nil
}
