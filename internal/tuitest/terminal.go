package tuitest

import (
	"bytes"
	"io"
)

// queryReply pairs a terminal capability query with the canned answer the
// harness writes back so the program under test does not stall waiting on a
// real terminal.
type queryReply struct {
	query []byte
	reply []byte
}

var queryReplies = []queryReply{
	{[]byte("\x1b[6n"), []byte("\x1b[1;1R")},
	{[]byte("\x1b]10;?\x07"), []byte("\x1b]10;rgb:cccc/cccc/cccc\x07")},
	{[]byte("\x1b]10;?\x1b\\"), []byte("\x1b]10;rgb:cccc/cccc/cccc\x1b\\")},
	{[]byte("\x1b]11;?\x07"), []byte("\x1b]11;rgb:0000/0000/0000\x07")},
	{[]byte("\x1b]11;?\x1b\\"), []byte("\x1b]11;rgb:0000/0000/0000\x1b\\")},
}

type terminalResponder struct {
	w       io.Writer
	pending []byte
}

func newTerminalResponder(w io.Writer) *terminalResponder {
	return &terminalResponder{w: w, pending: make([]byte, 0, 128)}
}

func (tr *terminalResponder) Process(chunk []byte) {
	tr.pending = append(tr.pending, chunk...)
	for tr.answerOne() {
	}
	// Retain a short tail so a query split across reads is still matched.
	if len(tr.pending) > 256 {
		tr.pending = tr.pending[len(tr.pending)-64:]
	}
}

func (tr *terminalResponder) answerOne() bool {
	for _, qr := range queryReplies {
		idx := bytes.Index(tr.pending, qr.query)
		if idx < 0 {
			continue
		}
		tr.pending = tr.pending[idx+len(qr.query):]
		_, _ = tr.w.Write(qr.reply)
		return true
	}
	return false
}
