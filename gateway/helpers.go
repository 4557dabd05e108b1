package gateway

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// bind decodes the JSON body into dst and answers 400 when it is malformed.
func bind(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// bindOptional is bind for endpoints whose body may be absent. The body length
// is not trusted since chunked requests report -1.
func bindOptional(c *gin.Context, dst interface{}) bool {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		abort(c, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// objectID parses a hex id path parameter. Malformed ids are reported as
// missing resources.
func objectID(c *gin.Context, param, resource string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(param))
	if err != nil {
		abort(c, http.StatusNotFound, resource+" not found")
		return primitive.NilObjectID, false
	}
	return id, true
}

func queryObjectID(c *gin.Context, key string) (primitive.ObjectID, bool) {
	raw := c.Query(key)
	if raw == "" {
		return primitive.NilObjectID, true
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		abort(c, http.StatusBadRequest, "Invalid "+key)
		return primitive.NilObjectID, false
	}
	return id, true
}

func queryBool(c *gin.Context, key string) *bool {
	raw, ok := c.GetQuery(key)
	if !ok {
		return nil
	}
	v := raw == "true"
	return &v
}

func queryFloat(c *gin.Context, key string) (*float64, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		abort(c, http.StatusBadRequest, "Invalid "+key)
		return nil, false
	}
	return &v, true
}

func queryTime(c *gin.Context, key string) (time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, true
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	abort(c, http.StatusBadRequest, "Invalid "+key)
	return time.Time{}, false
}

func queryList(c *gin.Context, key string) []string {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
