package session

// Transcript is the session's model of the console display: everything
// shown so far plus the boundary separating immutable text from the
// region being edited. Offsets are rune offsets.
//
// The prompt boundary only moves forward. Output and prompt glyphs are
// appended as immutable text; the editable region is whatever follows
// the boundary.
type Transcript struct {
	buf       []rune
	promptLoc int
}

// NewTranscript returns an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Text returns the full transcript, edit region included.
func (t *Transcript) Text() string {
	return string(t.buf)
}

// Len returns the transcript length in runes.
func (t *Transcript) Len() int {
	return len(t.buf)
}

// PromptLocation returns the rune offset of the first editable position.
func (t *Transcript) PromptLocation() int {
	return t.promptLoc
}

// EditBuffer returns the editable text after the prompt boundary.
func (t *Transcript) EditBuffer() string {
	return string(t.buf[t.promptLoc:])
}

// AppendOutput appends immutable text at the end of the transcript and
// moves the prompt boundary past it.
func (t *Transcript) AppendOutput(text string) {
	if text == "" {
		return
	}
	t.buf = append(t.buf, []rune(text)...)
	t.promptLoc = len(t.buf)
}

// SetPromptAtEnd appends the prompt glyph and places the boundary after
// it, opening a fresh empty edit region.
func (t *Transcript) SetPromptAtEnd(glyph string) {
	t.buf = append(t.buf, []rune(glyph)...)
	t.promptLoc = len(t.buf)
}

// ReplaceEditBuffer swaps the editable region for text, leaving the
// boundary in place.
func (t *Transcript) ReplaceEditBuffer(text string) {
	t.buf = append(t.buf[:t.promptLoc], []rune(text)...)
}

// freezeInput seals the current edit region: the submitted line becomes
// immutable transcript text followed by a newline.
func (t *Transcript) freezeInput() {
	t.buf = append(t.buf, '\n')
	t.promptLoc = len(t.buf)
}

// ApplyEdit splices insert into the transcript, replacing del runes at
// offset at. Edits touching any position before the prompt boundary, or
// reaching outside the transcript, are rejected with ErrEditRejected and
// change nothing.
func (t *Transcript) ApplyEdit(at, del int, insert string) error {
	if at < t.promptLoc || del < 0 || at > len(t.buf) || at+del > len(t.buf) {
		return ErrEditRejected
	}
	tail := append([]rune(nil), t.buf[at+del:]...)
	t.buf = append(t.buf[:at], []rune(insert)...)
	t.buf = append(t.buf, tail...)
	return nil
}
