package models

// Taker-view projections of exam content. These are distinct types, not
// a serialization of Question with fields omitted: the payload sent to a
// student taking an exam must never carry option correctness.

type TakerOption struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

type TakerQuestion struct {
	ID      uint          `json:"id"`
	Text    string        `json:"text"`
	Options []TakerOption `json:"options"`
}

// TakerView converts a full question into its answer-key-free projection.
func (q *Question) TakerView() TakerQuestion {
	opts := make([]TakerOption, len(q.Options))
	for i, o := range q.Options {
		opts[i] = TakerOption{ID: o.ID, Text: o.Text}
	}
	return TakerQuestion{ID: q.ID, Text: q.Text, Options: opts}
}
