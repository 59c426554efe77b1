package stacking

// Stacking is a resolved classification outcome: a named registration
// label and its numeric code.
type Stacking struct {
	Label string
	Code  int64
}

// Unclassified is the fallback outcome for any signature that matches no
// canonical pattern.
var Unclassified = Stacking{Label: "X", Code: 6}

// canonical signature patterns, matched exactly and in order.
var patterns = []struct {
	sig [4]ShellClass
	st  Stacking
}{
	{[4]ShellClass{1, 3, 3, 3}, Stacking{Label: "AA", Code: 5}},
	{[4]ShellClass{2, 2, 2, 2}, Stacking{Label: "AA'", Code: 2}},
	{[4]ShellClass{1, 1, 1, 1}, Stacking{Label: "A'B", Code: 3}},
	{[4]ShellClass{0, 3, 3, 3}, Stacking{Label: "AB'", Code: 4}},
	{[4]ShellClass{0, 2, 2, 2}, Stacking{Label: "AB", Code: 1}},
	{[4]ShellClass{2, 1, 1, 1}, Stacking{Label: "BA", Code: 0}},
}

// Resolve maps a shell signature to its stacking outcome. It is a total
// function: every signature, including the short ones produced when the
// bridge count is not three, resolves to exactly one outcome, defaulting
// to Unclassified.
func Resolve(sig Signature) Stacking {
	if len(sig) != 4 {
		return Unclassified
	}
	for _, p := range patterns {
		if sig[0] == p.sig[0] && sig[1] == p.sig[1] && sig[2] == p.sig[2] && sig[3] == p.sig[3] {
			return p.st
		}
	}
	return Unclassified
}

// Labels returns every label the resolver can produce, in code order.
func Labels() []string {
	labels := make([]string, 7)
	for _, p := range patterns {
		labels[p.st.Code] = p.st.Label
	}
	labels[Unclassified.Code] = Unclassified.Label
	return labels
}

// LabelForCode returns the label paired with a code.
func LabelForCode(code int64) (string, bool) {
	if code == Unclassified.Code {
		return Unclassified.Label, true
	}
	for _, p := range patterns {
		if p.st.Code == code {
			return p.st.Label, true
		}
	}
	return "", false
}

// CodeForLabel returns the code paired with a label.
func CodeForLabel(label string) (int64, bool) {
	if label == Unclassified.Label {
		return Unclassified.Code, true
	}
	for _, p := range patterns {
		if p.st.Label == label {
			return p.st.Code, true
		}
	}
	return 0, false
}
