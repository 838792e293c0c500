package profile

import (
	"math/big"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/lynq/internal/dataset"
)

// numericRegex matches plain decimals once currency and separators are gone.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

// ParseNumeric converts a field value to pgtype.Numeric. Strings may carry
// currency symbols, thousands separators and accounting parentheses for
// negatives. Blank and unparseable values return Valid=false.
func ParseNumeric(v dataset.Value) pgtype.Numeric {
	if f, ok := v.Num(); ok {
		return scanNumeric(dataset.FormatNumber(f))
	}
	s, ok := v.Str()
	if !ok {
		return pgtype.Numeric{Valid: false}
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Numeric{Valid: false}
	}

	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.NewReplacer("$", "", "€", "", "£", "", ",", "", " ", "").Replace(s)
	if upper := strings.ToUpper(s); strings.HasPrefix(upper, "KES") || strings.HasPrefix(upper, "KSH") {
		s = s[3:]
	}

	if isNegative {
		s = "-" + s
	}
	return scanNumeric(s)
}

func scanNumeric(s string) pgtype.Numeric {
	if !numericRegex.MatchString(s) {
		return pgtype.Numeric{Valid: false}
	}
	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		return pgtype.Numeric{Valid: false}
	}
	return n
}

func zeroNumeric() pgtype.Numeric {
	return pgtype.Numeric{Int: big.NewInt(0), Valid: true}
}

// addNumeric returns a+b. An invalid operand is ignored.
func addNumeric(a, b pgtype.Numeric) pgtype.Numeric {
	if !a.Valid {
		return b
	}
	if !b.Valid {
		return a
	}
	x := new(big.Int).Set(a.Int)
	y := new(big.Int).Set(b.Int)
	exp := a.Exp
	switch {
	case a.Exp > b.Exp:
		x.Mul(x, pow10(a.Exp-b.Exp))
		exp = b.Exp
	case b.Exp > a.Exp:
		y.Mul(y, pow10(b.Exp-a.Exp))
	}
	return pgtype.Numeric{Int: x.Add(x, y), Exp: exp, Valid: true}
}

func pow10(n int32) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// formatNumeric renders n as a plain decimal ("" when invalid).
func formatNumeric(n pgtype.Numeric) string {
	if !n.Valid {
		return ""
	}
	b, err := n.MarshalJSON()
	if err != nil {
		return ""
	}
	return string(b)
}
