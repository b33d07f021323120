package solana

import (
	"bytes"
	"crypto/ed25519"
	"io"

	"github.com/pkg/errors"

	"github.com/turbin3/prereq-client/pkg/solana/binary"
)

// versionPrefix marks a versioned message. Only legacy messages, whose first
// byte is the signature count, are supported.
const versionPrefix = 0x80

// wireWriter appends the transaction wire format to a buffer. Writes to a
// bytes.Buffer cannot fail and every length written here fits in a
// compact-u16 once the message is within MaxTransactionSize.
type wireWriter struct {
	bytes.Buffer
}

func (w *wireWriter) compactLen(n int) {
	_, _ = binary.EncodeCompactU16Len(w, n)
}

// prefixed writes b preceded by its compact-u16 length.
func (w *wireWriter) prefixed(b []byte) {
	w.compactLen(len(b))
	_, _ = w.Write(b)
}

// wireReader consumes the transaction wire format. The first error sticks and
// later reads become no-ops, so a decoder checks err once per field.
type wireReader struct {
	buf *bytes.Buffer
	err error
}

func newWireReader(b []byte) *wireReader {
	return &wireReader{buf: bytes.NewBuffer(b)}
}

func (r *wireReader) readByte(field string) byte {
	if r.err != nil {
		return 0
	}

	b, err := r.buf.ReadByte()
	if err != nil {
		r.err = errors.Wrapf(err, "failed to read %s", field)
	}
	return b
}

func (r *wireReader) compactLen(field string) int {
	if r.err != nil {
		return 0
	}

	n, err := binary.DecodeCompactU16Len(r.buf)
	if err != nil {
		r.err = errors.Wrapf(err, "failed to read %s length", field)
	}
	return n
}

func (r *wireReader) fill(field string, dst []byte) {
	if r.err != nil {
		return
	}

	if _, err := io.ReadFull(r.buf, dst); err != nil {
		r.err = errors.Wrapf(err, "failed to read %s", field)
	}
}

// prefixed reads a compact-u16 length and that many bytes.
func (r *wireReader) prefixed(field string) []byte {
	n := r.compactLen(field)
	if r.err != nil {
		return nil
	}

	b := make([]byte, n)
	r.fill(field, b)
	return b
}

func (t Transaction) Marshal() []byte {
	var w wireWriter

	w.compactLen(len(t.Signatures))
	for _, s := range t.Signatures {
		_, _ = w.Write(s[:])
	}
	_, _ = w.Write(t.Message.Marshal())

	return w.Bytes()
}

// Unmarshal decodes a transaction from the wire. The decoded transaction has no
// submission history, so its state derives from its signatures.
func (t *Transaction) Unmarshal(b []byte) error {
	r := newWireReader(b)

	count := r.compactLen("signatures")
	if r.err != nil {
		return r.err
	}

	t.Signatures = make([]Signature, count)
	for i := range t.Signatures {
		r.fill("signature", t.Signatures[i][:])
	}
	if r.err != nil {
		return r.err
	}
	t.submission = TransactionStateUnsigned

	return t.Message.Unmarshal(r.buf.Bytes())
}

// Marshal returns the canonical message bytes. These are the bytes that get
// signed.
func (m Message) Marshal() []byte {
	var w wireWriter

	_ = w.WriteByte(m.Header.NumSignatures)
	_ = w.WriteByte(m.Header.NumReadonlySigned)
	_ = w.WriteByte(m.Header.NumReadOnly)

	w.compactLen(len(m.Accounts))
	for _, a := range m.Accounts {
		_, _ = w.Write(a)
	}

	_, _ = w.Write(m.RecentBlockhash[:])

	w.compactLen(len(m.Instructions))
	for _, i := range m.Instructions {
		_ = w.WriteByte(i.ProgramIndex)
		w.prefixed(i.Accounts)
		w.prefixed(i.Data)
	}

	return w.Bytes()
}

// Unmarshal decodes a legacy message and checks that every index it contains
// refers to one of its accounts.
func (m *Message) Unmarshal(b []byte) error {
	if len(b) == 0 {
		return errors.New("empty message")
	}
	if b[0]&versionPrefix != 0 {
		return errors.New("versioned messages not supported")
	}

	r := newWireReader(b)

	m.Header.NumSignatures = r.readByte("num signatures")
	m.Header.NumReadonlySigned = r.readByte("num readonly signatures")
	m.Header.NumReadOnly = r.readByte("num readonly")

	accounts := r.compactLen("accounts")
	if r.err != nil {
		return r.err
	}
	m.Accounts = make([]ed25519.PublicKey, accounts)
	for i := range m.Accounts {
		m.Accounts[i] = make(ed25519.PublicKey, ed25519.PublicKeySize)
		r.fill("account", m.Accounts[i])
	}

	r.fill("recent blockhash", m.RecentBlockhash[:])

	instructions := r.compactLen("instructions")
	if r.err != nil {
		return r.err
	}
	m.Instructions = make([]CompiledInstruction, instructions)
	for i := range m.Instructions {
		c := CompiledInstruction{
			ProgramIndex: r.readByte("program index"),
			Accounts:     r.prefixed("instruction accounts"),
			Data:         r.prefixed("instruction data"),
		}
		if r.err != nil {
			return errors.Wrapf(r.err, "instruction %d", i)
		}

		if int(c.ProgramIndex) >= len(m.Accounts) {
			return errors.Errorf("instruction %d: program index %d out of range", i, c.ProgramIndex)
		}
		for _, index := range c.Accounts {
			if int(index) >= len(m.Accounts) {
				return errors.Errorf("instruction %d: account index %d out of range", i, index)
			}
		}

		m.Instructions[i] = c
	}

	return nil
}
