/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package cloudglue

import (
	"fmt"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// properties contains the flat key/value pairs and the chain of resolvers.
type properties struct {
	sync.RWMutex

	priority int

	store map[string]string

	resolvers []PropertyResolver

	// property conversion error handler
	errorHandler func(string, error)
}

func NewProperties() Properties {
	t := &properties{
		priority:  DefaultPropertyResolverPriority,
		store:     make(map[string]string),
		resolvers: make([]PropertyResolver, 0, 10),
	}
	t.Register(t)
	return t
}

func (t *properties) String() string {
	t.RLock()
	defer t.RUnlock()
	return fmt.Sprintf("Properties{priority=%d,store=%d,resolvers=%d,errorHandler=%v}", t.priority, len(t.store), len(t.resolvers), t.errorHandler != nil)
}

func (t *properties) Register(resolver PropertyResolver) {
	t.Lock()
	defer t.Unlock()
	t.resolvers = append(t.resolvers, resolver)
	sort.SliceStable(t.resolvers, func(i, j int) bool {
		return t.resolvers[i].Priority() > t.resolvers[j].Priority()
	})
}

func (t *properties) PropertyResolvers() []PropertyResolver {
	t.RLock()
	defer t.RUnlock()
	buf := make([]PropertyResolver, len(t.resolvers))
	copy(buf, t.resolvers)
	return buf
}

func (t *properties) Priority() int {
	return t.priority
}

func (t *properties) LoadMap(source map[string]interface{}) {
	t.Lock()
	defer t.Unlock()
	t.loadMapRec("", source)
}

func (t *properties) loadMapRec(prefix string, m map[string]interface{}) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch next := v.(type) {
		case map[string]interface{}:
			t.loadMapRec(key, next)
		case map[interface{}]interface{}:
			converted := make(map[string]interface{}, len(next))
			for nk, nv := range next {
				converted[fmt.Sprint(nk)] = nv
			}
			t.loadMapRec(key, converted)
		case []interface{}:
			parts := make([]string, len(next))
			for i, el := range next {
				parts[i] = fmt.Sprint(el)
			}
			t.store[key] = strings.Join(parts, ";")
		case nil:
			t.store[key] = ""
		default:
			t.store[key] = fmt.Sprint(v)
		}
	}
}

func (t *properties) Load(reader io.Reader) error {
	holder := make(map[string]interface{})
	if err := yaml.NewDecoder(reader).Decode(&holder); err != nil {
		if err == io.EOF {
			return nil
		}
		return errors.Wrap(err, "yaml decode")
	}
	t.LoadMap(holder)
	return nil
}

func (t *properties) Save(writer io.Writer) (n int, err error) {
	return io.WriteString(writer, t.Dump())
}

func (t *properties) Dump() string {
	var output strings.Builder

	keys := t.Keys()
	sort.Strings(keys)

	t.RLock()
	defer t.RUnlock()

	for _, key := range keys {
		if value, ok := t.store[key]; ok {
			output.WriteString(key)
			output.WriteString(" = ")
			output.WriteString(strconv.Quote(value))
			output.WriteByte('\n')
		}
	}

	return output.String()
}

func (t *properties) Len() int {
	t.RLock()
	defer t.RUnlock()
	return len(t.store)
}

func (t *properties) Keys() []string {
	t.RLock()
	defer t.RUnlock()
	keys := make([]string, 0, len(t.store))
	for k := range t.store {
		keys = append(keys, k)
	}
	return keys
}

func (t *properties) Map() map[string]string {
	t.RLock()
	defer t.RUnlock()
	m := make(map[string]string, len(t.store))
	for k, v := range t.store {
		m[k] = v
	}
	return m
}

func (t *properties) Contains(key string) bool {
	t.RLock()
	defer t.RUnlock()
	_, ok := t.store[key]
	return ok
}

func (t *properties) GetProperty(key string) (value string, ok bool) {
	t.RLock()
	defer t.RUnlock()
	value, ok = t.store[key]
	return
}

func (t *properties) Get(key string) (string, bool) {
	// resolvers can call back to properties, so do not hold the lock during the call
	for _, r := range t.PropertyResolvers() {
		if value, ok := r.GetProperty(key); ok {
			return value, true
		}
	}
	return "", false
}

func (t *properties) GetString(key, def string) string {
	if value, ok := t.Get(key); ok {
		return value
	}
	return def
}

func (t *properties) GetErrorHandler() func(string, error) {
	t.RLock()
	defer t.RUnlock()
	return t.errorHandler
}

func (t *properties) SetErrorHandler(onError func(string, error)) {
	t.Lock()
	defer t.Unlock()
	t.errorHandler = onError
}

func (t *properties) onError(key string, err error) {
	if cb := t.GetErrorHandler(); cb != nil {
		cb(key, err)
	}
}

func (t *properties) GetBool(key string, def bool) bool {
	value, ok := t.Get(key)
	if !ok {
		return def
	}
	v, err := parseBool(value)
	if err != nil {
		t.onError(key, err)
		return def
	}
	return v
}

func (t *properties) GetInt(key string, def int) int {
	value, ok := t.Get(key)
	if !ok {
		return def
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		t.onError(key, err)
		return def
	}
	return v
}

func (t *properties) GetFloat(key string, def float32) float32 {
	value, ok := t.Get(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(value, 32)
	if err != nil {
		t.onError(key, err)
		return def
	}
	return float32(f)
}

func (t *properties) GetDouble(key string, def float64) float64 {
	value, ok := t.Get(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		t.onError(key, err)
		return def
	}
	return f
}

func (t *properties) GetDuration(key string, def time.Duration) time.Duration {
	value, ok := t.Get(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		t.onError(key, err)
		return def
	}
	return d
}

func (t *properties) GetFileMode(key string, def os.FileMode) os.FileMode {
	if value, ok := t.Get(key); ok {
		return parseFileMode(value)
	}
	return def
}

func (t *properties) Set(key string, value string) {
	t.Lock()
	defer t.Unlock()
	t.store[key] = value
}

func (t *properties) Remove(key string) bool {
	t.Lock()
	defer t.Unlock()
	if _, ok := t.store[key]; !ok {
		return false
	}
	delete(t.store, key)
	return true
}

func (t *properties) Clear() {
	t.Lock()
	defer t.Unlock()
	t.store = make(map[string]string)
}

func parseBool(str string) (bool, error) {
	switch str {
	case "1", "t", "T", "true", "TRUE", "True", "on", "ON", "On":
		return true, nil
	case "0", "f", "F", "false", "FALSE", "False", "off", "OFF", "Off":
		return false, nil
	}
	return false, errors.Errorf("invalid syntax '%s'", str)
}

/**
Parses only os.Unix file mode with 0777 mask
*/
func parseFileMode(s string) os.FileMode {

	var m uint32

	const rwx = "rwxrwxrwx"
	off := len(s) - len(rwx)
	if off < 0 {
		buf := []byte("---------")
		copy(buf[-off:], s)
		s = string(buf)
	} else {
		s = s[off:]
	}

	for i, c := range rwx {
		if byte(c) == s[i] {
			m |= 1 << uint(9-1-i)
		}
	}

	return os.FileMode(m)
}
