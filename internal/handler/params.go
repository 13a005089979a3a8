package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

var errInvalidPage = errors.New("invalid page")

// pageParam reads ?page. Missing means the first page; values below 1 are
// clamped later, non-integers are rejected.
func pageParam(c *gin.Context) (int, error) {
	raw := c.Query("page")
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errInvalidPage
	}
	return page, nil
}

func idParam(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}
