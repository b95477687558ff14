package schema

// AnswerRecord is one submitted answer: the question it answers and the raw
// field values keyed by field path. Values are raw as submitted; they are
// re-validated and re-normalized on every replay.
type AnswerRecord struct {
	Question string         `json:"question"`
	Values   map[string]any `json:"values"`
}

// AnswerHistory is the ordered sequence of submitted answers. It is the only
// record of progress the engine ever consumes; everything else is recomputed.
type AnswerHistory []AnswerRecord

// Lookup returns the last record for the given question id, or nil.
// The last record wins so that resubmissions supersede earlier answers.
func (h AnswerHistory) Lookup(questionID string) *AnswerRecord {
	for i := len(h) - 1; i >= 0; i-- {
		if h[i].Question == questionID {
			return &h[i]
		}
	}
	return nil
}

// Append returns a new history with the record added. The receiver is not
// modified.
func (h AnswerHistory) Append(rec AnswerRecord) AnswerHistory {
	out := make(AnswerHistory, 0, len(h)+1)
	out = append(out, h...)
	return append(out, rec)
}
