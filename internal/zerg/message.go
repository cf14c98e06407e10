package zerg

// Message carries free text. The wire form is the raw bytes, without a terminator.
type Message struct {
	Text string
}

func (Message) Type() Type { return TypeMessage }

func decodeMessage(b []byte) Message {
	return Message{Text: string(b)}
}

func (m Message) appendBinary(b []byte) ([]byte, error) {
	return append(b, m.Text...), nil
}

func (m Message) appendText(b []byte) []byte {
	b = append(b, "Message: "...)
	b = append(b, m.Text...)
	return append(b, '\n')
}

func parseMessage(value string) Message {
	return Message{Text: trimLabelSpace(value)}
}
