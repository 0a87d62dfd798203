// Package validate checks candidate card documents before anything is persisted.
//
// WHY VALIDATE A RAW DOCUMENT?
// Decoding straight into model.CardInput would lose the information we most want
// to report: json.Unmarshal fails on the first field with the wrong type
// ("order": "1") and says nothing about the rest of the document. Validating the
// decoded map[string]any lets us see every field's real JSON type and report
// every violation in one pass, each with the exact path that caused it:
//
//	screens[2].blocks[0].type: must be one of text, code, terminal, coding
//
// A form UI can then highlight all invalid fields at once instead of making the
// user fix them one round trip at a time.
package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/sakif/tenxdev/internal/apperror"
	"github.com/sakif/tenxdev/internal/model"
)

// Result is the outcome of a validation pass.
type Result struct {
	Valid  bool                  `json:"valid"`
	Errors []apperror.FieldError `json:"errors"`
}

// Err returns nil for a valid result and an apperror validation error carrying
// every field violation otherwise.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return apperror.Invalid(r.Errors)
}

// collector accumulates field errors. It never stops early.
type collector struct {
	errs []apperror.FieldError
}

func (c *collector) add(field, format string, args ...any) {
	c.errs = append(c.errs, apperror.FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (c *collector) result() Result {
	if c.errs == nil {
		c.errs = []apperror.FieldError{}
	}
	return Result{Valid: len(c.errs) == 0, Errors: c.errs}
}

// Card validates a complete construction document.
func Card(doc map[string]any) Result {
	var c collector
	if doc == nil {
		c.add("body", "card document is required")
		return c.result()
	}

	requiredString(&c, doc, "title")
	requiredString(&c, doc, "description")
	optionalString(&c, doc, "tech")
	optionalString(&c, doc, "language")
	optionalString(&c, doc, "user_id")
	enumField(&c, doc, "card_type", true, cardTypes())
	enumField(&c, doc, "content_type", true, contentTypes())
	checkOptional(&c, doc)
	screens(&c, doc, true)

	return c.result()
}

// Patch validates a partial update document. Absent fields are not checked;
// present fields follow the same rules as Card. An explicit null is only
// accepted for fields that have an empty state (tech, language, category,
// tags, shared_with): the enums, title, description and screens cannot be
// cleared.
func Patch(doc map[string]any) Result {
	var c collector
	if doc == nil {
		c.add("body", "update document is required")
		return c.result()
	}

	for _, f := range []string{"title", "description"} {
		if _, ok := doc[f]; ok {
			requiredString(&c, doc, f)
		}
	}
	optionalString(&c, doc, "tech")
	optionalString(&c, doc, "language")
	for _, f := range []string{"card_type", "content_type", "visibility"} {
		if raw, ok := doc[f]; ok && raw == nil {
			c.add(f, "%s cannot be null", f)
		}
	}
	enumField(&c, doc, "card_type", false, cardTypes())
	enumField(&c, doc, "content_type", false, contentTypes())
	checkOptional(&c, doc)
	if _, ok := doc["screens"]; ok {
		screens(&c, doc, true)
	}
	for _, f := range []string{"id", "created_at", "createdAt", "user_id"} {
		if _, ok := doc[f]; ok {
			c.add(f, "%s cannot be changed", f)
		}
	}

	return c.result()
}

// CardJSON decodes body and validates it with Card. Malformed JSON is a single
// "body" error.
func CardJSON(body []byte) (map[string]any, Result) {
	doc, res := decode(body)
	if !res.Valid {
		return nil, res
	}
	return doc, Card(doc)
}

// PatchJSON is CardJSON for update documents.
func PatchJSON(body []byte) (map[string]any, Result) {
	doc, res := decode(body)
	if !res.Valid {
		return nil, res
	}
	return doc, Patch(doc)
}

// DecodeJSON decodes body into a document without applying any card rule.
// Numbers are kept as json.Number. Malformed JSON is a single "body" error.
func DecodeJSON(body []byte) (map[string]any, Result) {
	return decode(body)
}

func decode(body []byte) (map[string]any, Result) {
	var c collector
	var doc map[string]any

	dec := json.NewDecoder(bytes.NewReader(body))
	// UseNumber keeps 1 and 1.5 distinguishable for the order check.
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		c.add("body", "request body must be a JSON object")
		return nil, c.result()
	}
	return doc, c.result()
}

func screens(c *collector, doc map[string]any, required bool) {
	raw, ok := doc["screens"]
	if !ok || raw == nil {
		if required {
			c.add("screens", "at least one screen is required")
		}
		return
	}
	list, ok := raw.([]any)
	if !ok {
		c.add("screens", "screens must be an array")
		return
	}
	if len(list) == 0 {
		c.add("screens", "at least one screen is required")
		return
	}

	for i, item := range list {
		path := fmt.Sprintf("screens[%d]", i)
		screen, ok := item.(map[string]any)
		if !ok {
			c.add(path, "screen must be an object")
			continue
		}
		if name, ok := screen["name"]; ok {
			if _, isStr := name.(string); !isStr {
				c.add(path+".name", "screen name must be a string")
			}
		}
		optionalString(c, screen, "description", path)
		blocks(c, screen, path)
	}
}

func blocks(c *collector, screen map[string]any, screenPath string) {
	path := screenPath + ".blocks"
	raw, ok := screen["blocks"]
	if !ok || raw == nil {
		c.add(path, "at least one block is required")
		return
	}
	list, ok := raw.([]any)
	if !ok {
		c.add(path, "blocks must be an array")
		return
	}
	if len(list) == 0 {
		c.add(path, "at least one block is required")
		return
	}

	for i, item := range list {
		bpath := fmt.Sprintf("%s[%d]", path, i)
		block, ok := item.(map[string]any)
		if !ok {
			c.add(bpath, "block must be an object")
			continue
		}
		enumField(c, block, "type", true, contentTypes(), bpath)

		if content, ok := block["content"]; !ok {
			c.add(bpath+".content", "content is required")
		} else if _, isStr := content.(string); !isStr {
			c.add(bpath+".content", "content must be a string")
		}

		if order, ok := block["order"]; ok {
			if !isNumber(order) {
				c.add(bpath+".order", "order must be a number")
			} else if !isInteger(order) {
				c.add(bpath+".order", "order must be a whole number")
			}
		}

		optionalString(c, block, "id", bpath)
		optionalString(c, block, "language", bpath)
		optionalString(c, block, "title", bpath)
	}
}

func checkOptional(c *collector, doc map[string]any) {
	optionalString(c, doc, "category")
	enumField(c, doc, "visibility", false, visibilities())
	stringArray(c, doc, "tags")
	stringArray(c, doc, "shared_with")
}

func requiredString(c *collector, doc map[string]any, field string) {
	raw, ok := doc[field]
	if !ok || raw == nil {
		c.add(field, "%s is required", field)
		return
	}
	s, ok := raw.(string)
	if !ok {
		c.add(field, "%s must be a string", field)
		return
	}
	if strings.TrimSpace(s) == "" {
		c.add(field, "%s must not be empty", field)
	}
}

// optionalString checks that a present, non-null field is a string.
// prefix, when given, is the path of the enclosing object.
func optionalString(c *collector, doc map[string]any, field string, prefix ...string) {
	raw, ok := doc[field]
	if !ok || raw == nil {
		return
	}
	if _, isStr := raw.(string); !isStr {
		c.add(join(prefix, field), "%s must be a string", field)
	}
}

func enumField(c *collector, doc map[string]any, field string, required bool, allowed []string, prefix ...string) {
	path := join(prefix, field)
	raw, ok := doc[field]
	if !ok || raw == nil {
		if required {
			c.add(path, "%s is required", field)
		}
		return
	}
	s, isStr := raw.(string)
	if !isStr {
		c.add(path, "%s must be a string", field)
		return
	}
	for _, a := range allowed {
		if s == a {
			return
		}
	}
	c.add(path, "%s must be one of %s", field, strings.Join(allowed, ", "))
}

func stringArray(c *collector, doc map[string]any, field string) {
	raw, ok := doc[field]
	if !ok || raw == nil {
		return
	}
	list, ok := raw.([]any)
	if !ok {
		c.add(field, "%s must be an array of strings", field)
		return
	}
	for i, item := range list {
		if _, isStr := item.(string); !isStr {
			c.add(fmt.Sprintf("%s[%d]", field, i), "%s entries must be strings", field)
		}
	}
}

func isNumber(v any) bool {
	switch v.(type) {
	case json.Number, float64, int, int64:
		return true
	default:
		return false
	}
}

// isInteger accepts the numeric forms a decoder can produce for a whole number,
// including 1.0 and 1e2.
func isInteger(v any) bool {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return err == nil && isWhole(f)
	case float64:
		return isWhole(n)
	case int, int64:
		return true
	default:
		return false
	}
}

func isWhole(f float64) bool {
	return !math.IsInf(f, 0) && f == math.Trunc(f) && math.Abs(f) <= math.MaxInt32
}

func join(prefix []string, field string) string {
	if len(prefix) == 0 || prefix[0] == "" {
		return field
	}
	return prefix[0] + "." + field
}

func cardTypes() []string {
	out := make([]string, len(model.CardTypes))
	for i, t := range model.CardTypes {
		out[i] = string(t)
	}
	return out
}

func contentTypes() []string {
	out := make([]string, len(model.ContentTypes))
	for i, t := range model.ContentTypes {
		out[i] = string(t)
	}
	return out
}

func visibilities() []string {
	out := make([]string, len(model.Visibilities))
	for i, v := range model.Visibilities {
		out[i] = string(v)
	}
	return out
}
