package common

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatCount formats a score with thousand separators
func FormatCount(count int64) string {
	str := strconv.FormatInt(count, 10)

	negative := strings.HasPrefix(str, "-")
	if negative {
		str = str[1:]
	}

	n := len(str)
	if n <= 3 {
		if negative {
			return "-" + str
		}
		return str
	}

	var result strings.Builder
	if negative {
		result.WriteRune('-')
	}
	for i, digit := range str {
		if i > 0 && (n-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(digit)
	}

	return result.String()
}

// Mention renders a user mention
func Mention(userID int64) string {
	return fmt.Sprintf("<@%d>", userID)
}

// ParseID converts a Discord snowflake string to int64
func ParseID(id string) (int64, error) {
	v, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid snowflake %q: %w", id, err)
	}
	return v, nil
}

// FormatID converts an int64 ID back to the string form discordgo expects
func FormatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
