package ui

import (
	"strconv"

	tele "gopkg.in/telebot.v4"
)

// NewArticle builds an inline result that posts html into the chat when picked.
func NewArticle(id int64, title, description, html string) *tele.ArticleResult {
	result := &tele.ArticleResult{
		Title:       title,
		Description: description,
		Text:        html,
	}
	result.SetResultID(strconv.FormatInt(id, 10))
	result.SetParseMode(tele.ModeHTML)
	return result
}
