package request

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	merrors "github.com/moneta/moneta/moneta/errors"
	"github.com/moneta/moneta/moneta/search"
	"github.com/moneta/moneta/moneta/topic"
)

// Query parameter names for the result window.
const (
	ParamStartRow = "startRow"
	ParamMaxRows  = "maxRows"
)

// TopicRegistry is the read-only view of topic configuration the builder needs.
// *topic.Registry satisfies it.
type TopicRegistry interface {
	Topic(name string) (topic.Topic, bool)
	FindByPlural(name string) (topic.Topic, bool)
	IgnoredPrefixTokens() []string
}

// Params exposes query parameters. url.Values satisfies it.
type Params interface {
	Get(key string) string
}

// Coordinates are the transport-independent parts of an inbound request.
// Path is the escaped request path; segments are unescaped after splitting
// so an encoded slash stays inside its key.
type Coordinates struct {
	Path        string
	ContextPath string
	Params      Params
}

// Builder derives SearchRequests. It holds no per-request state and is safe
// for concurrent use.
type Builder struct {
	registry TopicRegistry
	ignored  map[string]struct{}
}

func NewBuilder(registry TopicRegistry) *Builder {
	tokens := registry.IgnoredPrefixTokens()
	ignored := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		ignored[t] = struct{}{}
	}
	return &Builder{registry: registry, ignored: ignored}
}

// Derive builds the SearchRequest for one request. It fails on the first
// violation and never returns a partial request.
func (b *Builder) Derive(c Coordinates) (search.SearchRequest, error) {
	nodes := b.searchNodes(c.Path, c.ContextPath)
	if len(nodes) == 0 {
		return search.SearchRequest{}, merrors.MissingTopic(c.Path)
	}

	t, err := b.resolveTopic(nodes[0], c.Path)
	if err != nil {
		return search.SearchRequest{}, err
	}

	req := search.SearchRequest{Topic: t.Name}

	if req.StartRow, err = windowParam(c.Params, ParamStartRow, t.Name, c.Path); err != nil {
		return search.SearchRequest{}, err
	}
	if req.MaxRows, err = windowParam(c.Params, ParamMaxRows, t.Name, c.Path); err != nil {
		return search.SearchRequest{}, err
	}

	keys := nodes[1:]
	children := make([]search.Criteria, 0, len(keys))
	for i, segment := range keys {
		kf, ok := t.KeyField(i)
		if !ok {
			return search.SearchRequest{}, merrors.UnconfiguredKey(segment, t.Name, c.Path)
		}
		value, err := keyValue(kf, segment)
		if err != nil {
			return search.SearchRequest{}, merrors.InvalidKeyValue(segment, kf.Column, t.Name, c.Path, err)
		}
		children = append(children, search.Equal(kf.Column, value))
	}
	req.Criteria = search.And(children...)

	return req, nil
}

// searchNodes splits the path into non-empty unescaped segments and skips
// the leading run of ignorable tokens. Only the leading run is skipped.
func (b *Builder) searchNodes(path, contextPath string) []string {
	nodes := strings.FieldsFunc(trimContextPath(path, contextPath), func(r rune) bool { return r == '/' })
	for i, n := range nodes {
		// a malformed escape is kept verbatim and fails topic or key lookup
		if u, err := url.PathUnescape(n); err == nil {
			nodes[i] = u
		}
	}

	start := 0
	for start < len(nodes) {
		if _, skip := b.ignored[nodes[start]]; !skip {
			break
		}
		start++
	}
	return nodes[start:]
}

// trimContextPath strips contextPath only at a segment boundary, so "/api"
// does not match "/apiv2".
func trimContextPath(path, contextPath string) string {
	cp := strings.TrimSuffix(contextPath, "/")
	if cp == "" || !strings.HasPrefix(path, cp) {
		return path
	}
	rest := path[len(cp):]
	if rest != "" && rest[0] != '/' {
		return path
	}
	return rest
}

func (b *Builder) resolveTopic(token, path string) (topic.Topic, error) {
	if t, ok := b.registry.Topic(token); ok {
		return t, nil
	}
	if t, ok := b.registry.FindByPlural(token); ok {
		return t, nil
	}
	return topic.Topic{}, merrors.UnknownTopic(token, path)
}

func windowParam(params Params, name, topicName, path string) (*int64, error) {
	if params == nil {
		return nil, nil
	}
	raw := params.Get(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, merrors.InvalidParameter(name, raw, topicName, path, err)
	}
	if n < 0 {
		return nil, merrors.InvalidParameter(name, raw, topicName, path, nil)
	}
	return &n, nil
}

// decimalPattern is plain decimal notation. Exponent and hex forms do not
// match, nor do NaN or Inf.
var decimalPattern = regexp.MustCompile(`^[+-]?(?:[0-9]+(?:\.[0-9]*)?|\.[0-9]+)$`)

// keyValue converts a path segment to the key field's type. Integral numbers
// become int64, other decimals float64.
func keyValue(kf topic.KeyField, segment string) (any, error) {
	if kf.DataType != topic.DataTypeNumeric {
		return segment, nil
	}
	if !decimalPattern.MatchString(segment) {
		return nil, strconv.ErrSyntax
	}
	if n, err := strconv.ParseInt(segment, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(segment, 64)
	if err != nil {
		return nil, err
	}
	return f, nil
}
