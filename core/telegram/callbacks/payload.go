package callbacks

import (
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// PayloadInt64 parses callback payload as int64.
func PayloadInt64(c tele.Context) (int64, error) {
	p := strings.TrimSpace(CallbackPayload(c))
	return strconv.ParseInt(p, 10, 64)
}
