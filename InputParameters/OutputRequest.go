package InputParameters

import (
	"errors"
	"fmt"
	"math"
	"os"
	"regexp"

	"github.com/ghodss/yaml"
)

const RequestVersion = 1

var ErrInvalidRequest = errors.New("invalid output request")

type FrameRequest struct {
	Step string `json:"step"`
	List []int  `json:"list"`
}

type FieldRequest struct {
	Key string `json:"key"` // regular expression matched against the whole field name
}

// OutputRequest selects the frames and fields to convert. The document is
// JSON or YAML:
//
//	{"version": 1,
//	 "frames": [{"step": "Step-1", "list": [0, 5]}],
//	 "fields": [{"key": "S\\d+"}, {"key": "U"}]}
type OutputRequest struct {
	Version  int            `json:"version,omitempty"`
	Frames   []FrameRequest `json:"frames"`
	Fields   []FieldRequest `json:"fields"`
	patterns []*regexp.Regexp
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// ReadOutputRequest parses and validates the request file at path
func ReadOutputRequest(path string) (or *OutputRequest, err error) {
	var data []byte
	if data, err = os.ReadFile(path); err != nil {
		return nil, fmt.Errorf("reading output request: %w", err)
	}
	or = &OutputRequest{}
	if err = or.Parse(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return
}

// Parse checks the document structure, decodes it and validates the result
func (or *OutputRequest) Parse(data []byte) (err error) {
	var doc interface{}
	if err = yaml.Unmarshal(data, &doc); err != nil {
		return invalid("%v", err)
	}
	if err = checkDocument(doc); err != nil {
		return
	}
	if err = yaml.Unmarshal(data, or); err != nil {
		return invalid("%v", err)
	}
	return or.Validate()
}

func checkDocument(doc interface{}) error {
	top, ok := doc.(map[string]interface{})
	if !ok {
		return invalid("document must be an object")
	}
	for key, value := range top {
		switch key {
		case "version":
			if v, ok := value.(float64); !ok || v != RequestVersion {
				return invalid("unsupported version %v, expected %d", value, RequestVersion)
			}
		case "frames", "fields":
		default:
			return invalid("unknown key %q", key)
		}
	}
	frames, ok := top["frames"].([]interface{})
	if !ok || len(frames) == 0 {
		return invalid("frames must be a non-empty array")
	}
	for i, f := range frames {
		entry, ok := f.(map[string]interface{})
		if !ok {
			return invalid("frames[%d] must be an object", i)
		}
		for key := range entry {
			if key != "step" && key != "list" {
				return invalid("frames[%d]: unknown key %q", i, key)
			}
		}
		if _, ok = entry["step"].(string); !ok {
			return invalid("frames[%d] needs a string step", i)
		}
		list, ok := entry["list"].([]interface{})
		if !ok || len(list) == 0 {
			return invalid("frames[%d] needs a non-empty list of frame ids", i)
		}
		for _, id := range list {
			if v, ok := id.(float64); !ok || v != math.Trunc(v) {
				return invalid("frames[%d]: frame id %v is not an integer", i, id)
			}
		}
	}
	fields, ok := top["fields"].([]interface{})
	if !ok || len(fields) == 0 {
		return invalid("fields must be a non-empty array")
	}
	for i, f := range fields {
		entry, ok := f.(map[string]interface{})
		if !ok {
			return invalid("fields[%d] must be an object", i)
		}
		if _, ok = entry["key"].(string); !ok {
			return invalid("fields[%d] needs a string key", i)
		}
	}
	return nil
}

// Validate checks a decoded or hand-built request and compiles the field
// patterns
func (or *OutputRequest) Validate() (err error) {
	if or.Version == 0 {
		or.Version = RequestVersion
	}
	if or.Version != RequestVersion {
		return invalid("unsupported version %d", or.Version)
	}
	if len(or.Frames) == 0 {
		return invalid("no frames requested")
	}
	for i, f := range or.Frames {
		if f.Step == "" {
			return invalid("frames[%d] has no step", i)
		}
		if len(f.List) == 0 {
			return invalid("frames[%d] has an empty frame list", i)
		}
	}
	if len(or.Fields) == 0 {
		return invalid("no fields requested")
	}
	or.patterns = make([]*regexp.Regexp, len(or.Fields))
	for i, f := range or.Fields {
		if or.patterns[i], err = regexp.Compile("^(?:" + f.Key + ")$"); err != nil {
			return invalid("fields[%d]: %v", i, err)
		}
	}
	return nil
}

// Patterns returns the compiled field patterns, anchored at both ends
func (or *OutputRequest) Patterns() []*regexp.Regexp {
	if or.patterns == nil {
		panic("output request used before validation")
	}
	return or.patterns
}

// StepNames lists the requested steps in request order
func (or *OutputRequest) StepNames() (names []string) {
	for _, f := range or.Frames {
		names = append(names, f.Step)
	}
	return
}

func (or *OutputRequest) Print() {
	fmt.Printf("[%d]\t\t\t\t= Request Version\n", or.Version)
	for _, f := range or.Frames {
		fmt.Printf("Frames[%s] = %v\n", f.Step, f.List)
	}
	for _, f := range or.Fields {
		fmt.Printf("Fields[%s]\n", f.Key)
	}
}
