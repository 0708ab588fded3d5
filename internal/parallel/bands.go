package parallel

// Band is the half-open row range [From, To).
type Band struct {
	From, To int
}

// Bands splits rows into at most parts contiguous bands of near-equal
// height covering every row once.
func Bands(rows, parts int) []Band {
	if rows <= 0 {
		return nil
	}
	parts = min(max(parts, 1), rows)
	bands := make([]Band, parts)
	base, extra := rows/parts, rows%parts
	from := 0
	for i := range bands {
		h := base
		if i < extra {
			h++
		}
		bands[i] = Band{From: from, To: from + h}
		from += h
	}
	return bands
}
