package isolation

// NormalizeViewMode converts window bounds between extraction and isolation
// view. Going to isolation view widens each window by its margins; going to
// extraction view narrows it. Margins, targets and order are kept. A
// symmetric scheme applies the start margin to both edges. With no margins,
// or when from equals to, the windows are copied unchanged.
func NormalizeViewMode(windows []Window, from, to ViewMode, mode MarginMode) []Window {
	out := make([]Window, len(windows))
	for i, w := range windows {
		start, end := shift(w.Start, w.End, w.StartMargin, w.EndMargin, from, to, mode)
		out[i] = Window{
			Start:       start,
			End:         end,
			Target:      copyFloat(w.Target),
			StartMargin: copyFloat(w.StartMargin),
			EndMargin:   copyFloat(w.EndMargin),
		}
	}
	return out
}

// NormalizeRows is NormalizeViewMode for grid rows. A missing bound stays
// missing.
func NormalizeRows(rows []Row, from, to ViewMode, mode MarginMode) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = Row{
			Start:       copyFloat(r.Start),
			End:         copyFloat(r.End),
			Target:      copyFloat(r.Target),
			StartMargin: copyFloat(r.StartMargin),
			EndMargin:   copyFloat(r.EndMargin),
		}
		if from == to || mode == MarginNone {
			continue
		}
		startMargin, endMargin := edgeMargins(r.StartMargin, r.EndMargin, mode)
		if r.Start != nil {
			out[i].Start = Float(*r.Start - direction(to)*startMargin)
		}
		if r.End != nil {
			out[i].End = Float(*r.End + direction(to)*endMargin)
		}
	}
	return out
}

func shift(start, end float64, startMargin, endMargin *float64, from, to ViewMode, mode MarginMode) (float64, float64) {
	if from == to || mode == MarginNone {
		return start, end
	}
	sm, em := edgeMargins(startMargin, endMargin, mode)
	d := direction(to)
	return start - d*sm, end + d*em
}

func edgeMargins(startMargin, endMargin *float64, mode MarginMode) (float64, float64) {
	sm := value(startMargin)
	if mode == MarginSymmetric {
		return sm, sm
	}
	return sm, value(endMargin)
}

// direction is +1 when widening into isolation view, -1 when narrowing.
func direction(to ViewMode) float64 {
	if to == ViewIsolation {
		return 1
	}
	return -1
}
