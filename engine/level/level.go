// Package level loads floor layouts: the spawn points, elevators, section triggers and walls of a cog office floor.
//
// Level files are YAML documents validated against level.schema.json. The floors shipped with the server are compiled
// into the binary; a level directory given in the config overrides them file by file.
package level

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/cogoffice/battlezone/engine/consts"
	"github.com/cogoffice/battlezone/engine/entity"
	"github.com/cogoffice/battlezone/engine/gwlog"
	"github.com/cogoffice/battlezone/engine/opmon"
	"github.com/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// Level entity class names
const (
	ClassFloorInfo      = "info_cogoffice_floor"
	ClassSuitSpawn      = "cogoffice_suitspawn"
	ClassHangoutPoint   = "cogoffice_hangoutpoint"
	ClassElevator       = "cogoffice_elevator"
	ClassSectionTrigger = "trigger_section"
	ClassWall           = "func_wall"
	ClassLogicCounter   = "logic_counter"
)

const levelExt = ".yaml"

var (
	//go:embed levels/*.yaml
	embeddedLevels embed.FS

	//go:embed level.schema.json
	levelSchemaJSON string
)

// Entity is one entity placed in a level
type Entity struct {
	Classname  string
	Targetname string
	Origin     entity.Vector3
	Angles     entity.Vector3
	Values     map[string]interface{}
}

func (e *Entity) String() string {
	if e.Targetname != "" {
		return fmt.Sprintf("%s<%s>", e.Classname, e.Targetname)
	}
	return fmt.Sprintf("%s@%s", e.Classname, e.Origin)
}

// HasValue returns if the entity has the key
func (e *Entity) HasValue(key string) bool {
	_, ok := e.Values[key]
	return ok
}

// ValueInt returns the key as an integer, 0 if missing
func (e *Entity) ValueInt(key string) int {
	switch v := e.Values[key].(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i)
		}
		f, _ := v.Float64()
		return int(f)
	case int:
		return v
	case float64:
		return int(v)
	case string:
		i, _ := strconv.Atoi(v)
		return i
	}
	return 0
}

// ValueFloat returns the key as a float, 0 if missing
func (e *Entity) ValueFloat(key string) float64 {
	switch v := e.Values[key].(type) {
	case json.Number:
		f, _ := v.Float64()
		return f
	case int:
		return float64(v)
	case float64:
		return v
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	}
	return 0
}

// ValueString returns the key as a string, "" if missing
func (e *Entity) ValueString(key string) string {
	switch v := e.Values[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// ValueVector returns the key as a vector, zero if missing
func (e *Entity) ValueVector(key string) entity.Vector3 {
	return toVector(e.Values[key])
}

func toVector(val interface{}) entity.Vector3 {
	list, ok := val.([]interface{})
	if !ok || len(list) != 3 {
		return entity.Vector3{}
	}
	var xyz [3]entity.Coord
	for i, c := range list {
		tmp := Entity{Values: map[string]interface{}{"c": c}}
		xyz[i] = entity.Coord(tmp.ValueFloat("c"))
	}
	return entity.Vector3{X: xyz[0], Y: xyz[1], Z: xyz[2]}
}

// Level is a loaded floor layout. Levels are shared between zones and must not be modified.
type Level struct {
	Name     string
	Entities []*Entity
}

func (l *Level) String() string {
	return fmt.Sprintf("Level<%s|%d entities>", l.Name, len(l.Entities))
}

// FindAllEntities returns all entities of the class in file order
func (l *Level) FindAllEntities(classname string) []*Entity {
	var res []*Entity
	for _, e := range l.Entities {
		if e.Classname == classname {
			res = append(res, e)
		}
	}
	return res
}

// FindEntity returns the first entity of the target name
func (l *Level) FindEntity(targetname string) (*Entity, bool) {
	for _, e := range l.Entities {
		if e.Targetname == targetname {
			return e, true
		}
	}
	return nil, false
}

// Loader loads and caches levels
type Loader struct {
	dir    string
	schema *jsonschema.Schema

	lock  sync.Mutex
	cache map[string]*Level
}

// NewLoader creates a loader reading from dir, falling back to the compiled-in levels. dir may be empty.
func NewLoader(dir string) (*Loader, error) {
	schema, err := jsonschema.CompileString("level.schema.json", levelSchemaJSON)
	if err != nil {
		return nil, errors.Wrap(err, "compile level schema")
	}
	return &Loader{
		dir:    dir,
		schema: schema,
		cache:  map[string]*Level{},
	}, nil
}

// Load returns the level of the name
func (ld *Loader) Load(name string) (*Level, error) {
	ld.lock.Lock()
	defer ld.lock.Unlock()

	if l, ok := ld.cache[name]; ok {
		return l, nil
	}

	op := opmon.StartOperation("LoadLevel")
	defer op.Finish(consts.LEVEL_LOAD_TIMEOUT_WARN)

	data, err := ld.read(name)
	if err != nil {
		return nil, err
	}
	l, err := ld.parse(name, data)
	if err != nil {
		return nil, err
	}
	ld.cache[name] = l
	gwlog.Infof("Loaded %s", l)
	return l, nil
}

// Names returns the names of all loadable levels, sorted
func (ld *Loader) Names() ([]string, error) {
	names := map[string]struct{}{}
	embedded, err := fs.Glob(embeddedLevels, "levels/*"+levelExt)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	for _, p := range embedded {
		names[strings.TrimSuffix(filepath.Base(p), levelExt)] = struct{}{}
	}
	if ld.dir != "" {
		files, err := filepath.Glob(filepath.Join(ld.dir, "*"+levelExt))
		if err != nil {
			return nil, errors.WithStack(err)
		}
		for _, p := range files {
			names[strings.TrimSuffix(filepath.Base(p), levelExt)] = struct{}{}
		}
	}
	list := make([]string, 0, len(names))
	for n := range names {
		list = append(list, n)
	}
	sort.Strings(list)
	return list, nil
}

func (ld *Loader) read(name string) ([]byte, error) {
	if strings.ContainsAny(name, `/\`) {
		return nil, errors.Errorf("invalid level name: %q", name)
	}
	if ld.dir != "" {
		data, err := os.ReadFile(filepath.Join(ld.dir, name+levelExt))
		if err == nil {
			return data, nil
		}
		if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "read level %s", name)
		}
	}
	data, err := embeddedLevels.ReadFile("levels/" + name + levelExt)
	if err != nil {
		return nil, errors.Wrapf(err, "level %s not found", name)
	}
	return data, nil
}

// parse decodes a level document and validates it against the schema
func (ld *Loader) parse(name string, data []byte) (*Level, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, "level %s", name)
	}

	// the schema validator wants JSON values
	js, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrapf(err, "level %s", name)
	}
	dec := json.NewDecoder(bytes.NewReader(js))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, errors.Wrapf(err, "level %s", name)
	}
	if err := ld.schema.Validate(v); err != nil {
		return nil, errors.Wrapf(err, "level %s", name)
	}

	root := v.(map[string]interface{})
	l := &Level{Name: root["name"].(string)}
	if l.Name != name {
		return nil, errors.Errorf("level %s: name mismatch %q", name, l.Name)
	}
	for _, item := range root["entities"].([]interface{}) {
		values := item.(map[string]interface{})
		e := &Entity{
			Values: values,
		}
		e.Classname = e.ValueString("classname")
		e.Targetname = e.ValueString("targetname")
		e.Origin = e.ValueVector("origin")
		e.Angles = e.ValueVector("angles")
		l.Entities = append(l.Entities, e)
	}
	return l, nil
}
