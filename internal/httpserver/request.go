package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/forms"
	"github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/storage"
)

const GuestHeader = "X-Guest-ID"

var errBadBody = errors.New("invalid body")

func parseID(c echo.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return uint(v), nil
}

func actor(c echo.Context) service.Actor {
	id, _ := auth.UserID(c)
	return service.Actor{UserID: id, Role: auth.Role(c)}
}

// cartOwner is the signed-in user's id or, for guests, the X-Guest-ID header.
func cartOwner(c echo.Context) string {
	if id, ok := auth.UserID(c); ok {
		return strconv.FormatUint(uint64(id), 10)
	}
	return guestOwner(c)
}

func guestOwner(c echo.Context) string {
	g := strings.TrimSpace(c.Request().Header.Get(GuestHeader))
	if g == "" || len(g) > 64 {
		return cart.GuestOwner
	}
	return "guest:" + g
}

func isMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

// readValues collects form values from a multipart, urlencoded or JSON body.
// JSON scalars become single values, arrays become repeated values; nested objects are ignored.
func readValues(c echo.Context) (forms.Values, error) {
	ct := c.Request().Header.Get(echo.HeaderContentType)
	switch {
	case strings.HasPrefix(ct, echo.MIMEMultipartForm):
		mf, err := c.MultipartForm()
		if err != nil {
			return nil, err
		}
		return forms.Values(mf.Value).Clone(), nil
	case strings.HasPrefix(ct, echo.MIMEApplicationForm):
		p, err := c.FormParams()
		if err != nil {
			return nil, err
		}
		return forms.Values(p).Clone(), nil
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, err
	}
	v := forms.Values{}
	if len(bytes.TrimSpace(body)) == 0 {
		return v, nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, errBadBody
	}
	for k, val := range raw {
		switch x := val.(type) {
		case []any:
			out := make([]string, 0, len(x))
			for _, el := range x {
				if s, ok := scalar(el); ok {
					out = append(out, s)
				}
			}
			v[k] = out
		default:
			if s, ok := scalar(x); ok {
				v.Set(k, s)
			}
		}
	}
	return v, nil
}

func scalar(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case bool:
		return strconv.FormatBool(x), true
	}
	return "", false
}

// saveUploads stores every file sent under field and returns their URLs.
// Files already written are removed again when a later one fails.
func saveUploads(c echo.Context, files *storage.Local, field string) ([]string, error) {
	if !isMultipart(c) || files == nil {
		return nil, nil
	}
	mf, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	var urls []string
	for _, fh := range mf.File[field] {
		u, err := files.Save(fh)
		if err != nil {
			discardUploads(files, urls)
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, nil
}

func discardUploads(files *storage.Local, urls []string) {
	if files == nil {
		return
	}
	for _, u := range urls {
		_ = files.Delete(u)
	}
}

func badRequest(msg string) error {
	return echo.NewHTTPError(http.StatusBadRequest, msg)
}

// FlexString accepts a JSON string or number, e.g. a phone number typed into a numeric input.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}
