package level

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bmizerany/assert"
	"github.com/cogoffice/battlezone/engine/entity"
)

func newLoader(t *testing.T, dir string) *Loader {
	ld, err := NewLoader(dir)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	return ld
}

func TestLoadEmbeddedLevels(t *testing.T) {
	ld := newLoader(t, "")
	names, err := ld.Names()
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, []string{"boardroom", "breakroom", "cubicles", "executive", "lobby", "records"}, names)

	for _, name := range names {
		l, err := ld.Load(name)
		if err != nil {
			t.Fatalf("load %s: %v", name, err)
		}
		if n := len(l.FindAllEntities(ClassFloorInfo)); n != 1 {
			t.Fatalf("%s has %d floor info entities", name, n)
		}
		if n := len(l.FindAllEntities(ClassElevator)); n != 2 {
			t.Fatalf("%s has %d elevators", name, n)
		}
		immediate := 0
		for _, sp := range l.FindAllEntities(ClassSuitSpawn) {
			if sp.ValueInt("section") == 0 && sp.ValueInt("spawnflags")&2 != 0 {
				immediate++
			}
		}
		if immediate < 4 {
			t.Fatalf("%s has %d immediate spawns in section 0", name, immediate)
		}
	}
}

func TestFindAllEntitiesFileOrder(t *testing.T) {
	l, err := newLoader(t, "").Load("lobby")
	if err != nil {
		t.Fatal(err)
	}
	spawns := l.FindAllEntities(ClassSuitSpawn)
	assert.Equal(t, entity.Vector3{X: -12, Y: 10, Z: 0}, spawns[0].Origin)
	assert.Equal(t, entity.Vector3{X: -6, Y: 14, Z: 0}, spawns[1].Origin)
	assert.Equal(t, 10, spawns[2].ValueInt("spawnflags"))
	assert.Equal(t, entity.Coord(180), spawns[0].Angles.X)

	elevs := l.FindAllEntities(ClassElevator)
	assert.Equal(t, 0, elevs[0].ValueInt("index"))
	assert.Equal(t, 1, elevs[1].ValueInt("index"))

	trig, ok := l.FindEntity("section1")
	assert.T(t, ok)
	assert.Equal(t, 1, trig.ValueInt("section"))
	assert.Equal(t, 12.0, trig.ValueFloat("radius"))

	walls := l.FindAllEntities(ClassWall)
	assert.Equal(t, "tile", walls[0].ValueString("surface"))
	assert.Equal(t, entity.Vector3{X: -20, Y: -2, Z: 0}, walls[0].ValueVector("mins"))

	assert.Equal(t, 0, len(l.FindAllEntities("no_such_class")))
}

func TestLoadIsCached(t *testing.T) {
	ld := newLoader(t, "")
	l1, _ := ld.Load("records")
	l2, _ := ld.Load("records")
	assert.T(t, l1 == l2, "level should be cached")
}

func writeLevel(t *testing.T, dir, name, content string) {
	if err := os.WriteFile(filepath.Join(dir, name+".yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestDirOverridesEmbedded(t *testing.T) {
	dir := t.TempDir()
	writeLevel(t, dir, "lobby", `
name: lobby
entities:
  - classname: info_cogoffice_floor
  - classname: cogoffice_suitspawn
    origin: [1, 2, 3]
    section: 0
    spawnflags: 2
`)
	ld := newLoader(t, dir)
	l, err := ld.Load("lobby")
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, 2, len(l.Entities))

	// levels missing from dir still come from the binary
	if _, err := ld.Load("executive"); err != nil {
		t.Fatal(err)
	}
}

func TestInvalidLevels(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"badyaml":   "name: [",
		"noname":    "entities: []\n",
		"mismatch":  "name: other\nentities: []\n",
		"nosection": "name: nosection\nentities:\n  - classname: cogoffice_suitspawn\n    origin: [0, 0, 0]\n    spawnflags: 2\n",
		"badflags":  "name: badflags\nentities:\n  - classname: cogoffice_suitspawn\n    origin: [0, 0, 0]\n    section: 0\n    spawnflags: 99\n",
		"badvec":    "name: badvec\nentities:\n  - classname: cogoffice_hangoutpoint\n    origin: [0, 0]\n",
		"trigger0":  "name: trigger0\nentities:\n  - classname: trigger_section\n    origin: [0, 0, 0]\n    section: 0\n    radius: 5\n",
	}
	for name, content := range cases {
		writeLevel(t, dir, name, content)
	}
	ld := newLoader(t, dir)
	for name := range cases {
		if _, err := ld.Load(name); err == nil {
			t.Fatalf("level %s should be rejected", name)
		}
	}
	if _, err := ld.Load("../etc/passwd"); err == nil {
		t.Fatalf("path names should be rejected")
	}
	if _, err := ld.Load("missing"); err == nil {
		t.Fatalf("missing level should fail")
	}
}
