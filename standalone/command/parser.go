package command

import (
	"errors"

	"gostep/standalone"
)

// ErrMalformed is returned for parameters that are not KEY=VALUE
var ErrMalformed = errors.New("malformed parameter")

// Parser handles text command parsing
type Parser struct{}

// NewParser creates a new command parser
func NewParser() *Parser {
	return &Parser{}
}

// ParseLine parses a single command line such as
// "STEP MOTOR=left STEPS=-200 SPS=300 ; comment".
// Blank lines return a nil command.
func (p *Parser) ParseLine(line string) (*standalone.Command, error) {
	cmd := &standalone.Command{
		Parameters: make(map[string]string),
	}

	// Split off comment
	for i := 0; i < len(line); i++ {
		if line[i] == ';' || line[i] == '#' {
			cmd.Comment = line[i:]
			line = line[:i]
			break
		}
	}

	fields := splitFields(line)
	if len(fields) == 0 {
		if cmd.Comment != "" {
			return cmd, nil
		}
		return nil, nil
	}

	cmd.Name = upper(fields[0])
	for _, f := range fields[1:] {
		eq := indexByte(f, '=')
		if eq <= 0 {
			return nil, errors.New(ErrMalformed.Error() + " '" + f + "'")
		}
		cmd.Parameters[upper(f[:eq])] = f[eq+1:]
	}
	return cmd, nil
}

// Has checks if a parameter exists in the command
func Has(cmd *standalone.Command, key string) bool {
	_, ok := cmd.Parameters[key]
	return ok
}

// Int gets an integer parameter, or returns def if not present
func Int(cmd *standalone.Command, key string, def int) (int, error) {
	s, ok := cmd.Parameters[key]
	if !ok {
		return def, nil
	}
	v, n := parseInt(s, 0)
	if s == "" || n != len(s) {
		return 0, errors.New("bad integer " + key + "=" + s)
	}
	return v, nil
}

// Float gets a decimal parameter, or returns def if not present
func Float(cmd *standalone.Command, key string, def float64) (float64, error) {
	s, ok := cmd.Parameters[key]
	if !ok {
		return def, nil
	}
	v, n := parseFloat(s, 0)
	if s == "" || n != len(s) {
		return 0, errors.New("bad number " + key + "=" + s)
	}
	return v, nil
}

// Bool gets a flag parameter. 1, TRUE and YES are true; 0, FALSE and NO are false.
func Bool(cmd *standalone.Command, key string, def bool) (bool, error) {
	s, ok := cmd.Parameters[key]
	if !ok {
		return def, nil
	}
	switch upper(s) {
	case "1", "TRUE", "YES":
		return true, nil
	case "0", "FALSE", "NO":
		return false, nil
	}
	return false, errors.New("bad flag " + key + "=" + s)
}

// List gets a comma separated parameter
func List(cmd *standalone.Command, key string) []string {
	s, ok := cmd.Parameters[key]
	if !ok || s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return out
}

// IntList gets a comma separated list of integers
func IntList(cmd *standalone.Command, key string) ([]int, error) {
	items := List(cmd, key)
	out := make([]int, len(items))
	for i, s := range items {
		v, n := parseInt(s, 0)
		if s == "" || n != len(s) {
			return nil, errors.New("bad integer " + key + "=" + s)
		}
		out[i] = v
	}
	return out, nil
}

func splitFields(s string) []string {
	var fields []string
	i := 0
	for i < len(s) {
		// Skip whitespace
		for i < len(s) && isSpace(s[i]) {
			i++
		}
		start := i
		for i < len(s) && !isSpace(s[i]) {
			i++
		}
		if i > start {
			fields = append(fields, s[start:i])
		}
	}
	return fields
}

// parseInt parses an integer from the string starting at pos
func parseInt(s string, pos int) (int, int) {
	if pos >= len(s) {
		return 0, pos
	}

	negative := false
	if s[pos] == '-' {
		negative = true
		pos++
	} else if s[pos] == '+' {
		pos++
	}

	start := pos
	value := 0

	for pos < len(s) && s[pos] >= '0' && s[pos] <= '9' {
		value = value*10 + int(s[pos]-'0')
		pos++
	}

	if pos == start {
		return 0, start - 1 // No digits found
	}

	if negative {
		value = -value
	}

	return value, pos
}

// parseFloat parses a floating-point number from the string starting at pos
func parseFloat(s string, pos int) (float64, int) {
	if pos >= len(s) {
		return 0, pos
	}

	negative := false
	if s[pos] == '-' {
		negative = true
		pos++
	} else if s[pos] == '+' {
		pos++
	}

	start := pos
	intPart := 0
	fracPart := 0.0
	fracDigits := 0

	for pos < len(s) && s[pos] >= '0' && s[pos] <= '9' {
		intPart = intPart*10 + int(s[pos]-'0')
		pos++
	}

	if pos < len(s) && s[pos] == '.' {
		pos++
		fracStart := pos
		for pos < len(s) && s[pos] >= '0' && s[pos] <= '9' {
			fracPart = fracPart*10.0 + float64(s[pos]-'0')
			pos++
		}
		fracDigits = pos - fracStart
	}

	if pos == start || (pos == start+1 && s[start] == '.') {
		return 0, start - 1 // No valid number found
	}

	value := float64(intPart)
	if fracDigits > 0 {
		divisor := 1.0
		for i := 0; i < fracDigits; i++ {
			divisor *= 10.0
		}
		value += fracPart / divisor
	}

	if negative {
		value = -value
	}

	return value, pos
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func indexByte(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}

// upper converts ASCII letters to uppercase
func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}
