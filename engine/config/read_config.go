package config

import (
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cogoffice/battlezone/engine/common"
	"github.com/cogoffice/battlezone/engine/gwlog"
	"github.com/go-ini/ini"
	"github.com/pkg/errors"
)

const (
	_DEFAULT_CONFIG_FILE   = "battlezone.ini"
	_DEFAULT_LOG_LEVEL     = "debug"
	_DEFAULT_LISTEN_ADDR   = "0.0.0.0:15011"
	_DEFAULT_TICK_INTERVAL = 10 * time.Millisecond
	_BUILDING_SECTION      = "building."
)

var (
	configFilePath = _DEFAULT_CONFIG_FILE
	battleConfig   *BattleZoneConfig
	configLock     sync.Mutex
)

// GameConfig defines fields of game config
type GameConfig struct {
	LogFile                string
	LogStderr              bool
	LogLevel               string
	GoMaxProcs             int
	TickInterval           time.Duration
	LoadLogInterval        time.Duration
	Debug                  bool
}

// GateConfig defines fields of gate config
type GateConfig struct {
	ListenAddr         string
	Packer             string
	CompressConnection bool
	HeartbeatTimeout   time.Duration
}

// BattleConfig defines the choreography delays and AI intervals of battle zones
type BattleConfig struct {
	RideElevatorTime    time.Duration
	FaceOffTime         time.Duration
	VictoryTime         time.Duration
	SuitDeathTime       time.Duration
	AttackThinkInterval time.Duration
	GuardThinkInterval  time.Duration
	SectionTriggerSlack float64
	LevelDir            string
	// BoardingTime is how long the elevator of a building waits for more toons, 0 departs every toon alone
	BoardingTime        time.Duration
	// ReclaimEveryMinutes is how often the cogs take back toon buildings, 0 never
	ReclaimEveryMinutes int
}

// BuildingConfig defines a cog building of a hood
type BuildingConfig struct {
	Hood            string
	Dept            string
	Floors          int
	LevelRange      [2]int
	BossLevelRange  [2]int
	GuardsPerSecMin int
	GuardsPerSecMax int
}

// KVDBConfig defines fields of KVDB config
type KVDBConfig struct {
	Type       string // mem, redis, redis_cluster, mongodb, sqlite
	Url        string
	DB         string
	Collection string
	StartNodes common.StringSet
}

// BattleZoneConfig defines the total config file structure
type BattleZoneConfig struct {
	Game      GameConfig
	Gate      GateConfig
	Battle    BattleConfig
	Buildings map[string]*BuildingConfig
	KVDB      KVDBConfig
}

// SetConfigFile sets the config file path (battlezone.ini by default)
func SetConfigFile(f string) {
	configFilePath = f
}

// GetConfigDir returns the directory of the config file
func GetConfigDir() string {
	dir, _ := path.Split(configFilePath)
	return dir
}

// GetConfigFilePath returns the config file path
func GetConfigFilePath() string {
	return configFilePath
}

// Get returns the total config, reading the config file on first use
//
// A broken config file is fatal for the process, so Get panics on read errors.
func Get() *BattleZoneConfig {
	configLock.Lock()
	defer configLock.Unlock() // protect concurrent access from game & gate
	if battleConfig == nil {
		cfg, err := Load(configFilePath)
		checkConfigError(err, "")
		battleConfig = cfg
	}
	return battleConfig
}

// Reload forces the config to be read again
func Reload() *BattleZoneConfig {
	configLock.Lock()
	battleConfig = nil
	configLock.Unlock()

	return Get()
}

// GetBattle returns the battle config
func GetBattle() *BattleConfig {
	return &Get().Battle
}

// GetBuilding returns the building config of the hood
func GetBuilding(hood string) (*BuildingConfig, bool) {
	b, ok := Get().Buildings[strings.ToLower(hood)]
	return b, ok
}

// GetHoods returns all hoods having a building, sorted
func GetHoods() []string {
	cfg := Get()
	hoods := make([]string, 0, len(cfg.Buildings))
	for hood := range cfg.Buildings {
		hoods = append(hoods, hood)
	}
	sort.Strings(hoods)
	return hoods
}

// GetKVDB returns the KVDB config
func GetKVDB() *KVDBConfig {
	return &Get().KVDB
}

// DumpPretty format config to string in pretty format
func DumpPretty(cfg interface{}) string {
	s, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return err.Error()
	}
	return string(s)
}

// Load reads a config file without caching it
//
// Unknown keys still panic: a typo in a config file must not silently fall back to defaults.
func Load(filePath string) (*BattleZoneConfig, error) {
	config := BattleZoneConfig{
		Buildings: map[string]*BuildingConfig{},
	}
	gwlog.Infof("Using config file: %s", filePath)
	iniFile, err := ini.Load(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "load config %s", filePath)
	}

	readGameConfig(iniFile.Section("game"), &config.Game)
	readGateConfig(iniFile.Section("gate"), &config.Gate)
	readBattleConfig(iniFile.Section("battle"), &config.Battle)
	readKVDBConfig(iniFile.Section("kvdb"), &config.KVDB)

	for _, sec := range iniFile.Sections() {
		if sec.Name() == ini.DefaultSection {
			continue
		}
		secName := strings.ToLower(sec.Name())
		if secName == "game" || secName == "gate" || secName == "battle" || secName == "kvdb" {
			continue
		}

		if strings.HasPrefix(secName, _BUILDING_SECTION) {
			hood := secName[len(_BUILDING_SECTION):]
			bc, err := readBuildingConfig(sec, hood)
			if err != nil {
				return nil, err
			}
			config.Buildings[hood] = bc
		} else if secName == "building" {
			// parent of the building.<hood> sections
		} else {
			gwlog.Errorf("unknown section: %s", secName)
		}
	}

	if err := validateKVDBConfig(&config.KVDB); err != nil {
		return nil, err
	}
	return &config, nil
}

func readGameConfig(sec *ini.Section, gc *GameConfig) {
	gc.LogFile = "battlezone.log"
	gc.LogStderr = true
	gc.LogLevel = _DEFAULT_LOG_LEVEL
	gc.TickInterval = _DEFAULT_TICK_INTERVAL
	gc.LoadLogInterval = time.Minute

	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		if name == "log_file" {
			gc.LogFile = key.MustString(gc.LogFile)
		} else if name == "log_stderr" {
			gc.LogStderr = key.MustBool(gc.LogStderr)
		} else if name == "log_level" {
			gc.LogLevel = key.MustString(gc.LogLevel)
		} else if name == "gomaxprocs" {
			gc.GoMaxProcs = key.MustInt(gc.GoMaxProcs)
		} else if name == "tick_interval_ms" {
			gc.TickInterval = time.Millisecond * time.Duration(key.MustInt(int(gc.TickInterval/time.Millisecond)))
		} else if name == "load_log_interval" {
			gc.LoadLogInterval = time.Second * time.Duration(key.MustInt(int(gc.LoadLogInterval/time.Second)))
		} else if name == "debug" {
			gc.Debug = key.MustBool(gc.Debug)
		} else {
			gwlog.Panicf("section %s has unknown key: %s", sec.Name(), key.Name())
		}
	}
}

func readGateConfig(sec *ini.Section, gc *GateConfig) {
	gc.ListenAddr = _DEFAULT_LISTEN_ADDR
	gc.Packer = "msgpack"
	gc.HeartbeatTimeout = 0

	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		if name == "listen_addr" {
			gc.ListenAddr = key.MustString(gc.ListenAddr)
		} else if name == "packer" {
			gc.Packer = key.MustString(gc.Packer)
		} else if name == "compress_connection" {
			gc.CompressConnection = key.MustBool(gc.CompressConnection)
		} else if name == "heartbeat_timeout" {
			gc.HeartbeatTimeout = time.Second * time.Duration(key.MustInt(0))
		} else {
			gwlog.Panicf("section %s has unknown key: %s", sec.Name(), key.Name())
		}
	}

	if gc.Packer != "msgpack" && gc.Packer != "json" {
		gwlog.Panicf("gate: unknown packer %s", gc.Packer)
	}
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}

// DefaultBattleConfig returns the battle config used when the config file has no [battle] section
func DefaultBattleConfig() BattleConfig {
	return BattleConfig{
		RideElevatorTime:    seconds(7.5),
		FaceOffTime:         seconds(8.5),
		VictoryTime:         seconds(5.0),
		SuitDeathTime:       seconds(2.0),
		BoardingTime:        seconds(5.0),
		AttackThinkInterval: 100 * time.Millisecond,
		GuardThinkInterval:  500 * time.Millisecond,
		SectionTriggerSlack: 2.0,
		ReclaimEveryMinutes: 30,
	}
}

func readBattleConfig(sec *ini.Section, bc *BattleConfig) {
	*bc = DefaultBattleConfig()

	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		if name == "ride_elevator_time" {
			bc.RideElevatorTime = seconds(key.MustFloat64(bc.RideElevatorTime.Seconds()))
		} else if name == "face_off_time" {
			bc.FaceOffTime = seconds(key.MustFloat64(bc.FaceOffTime.Seconds()))
		} else if name == "victory_time" {
			bc.VictoryTime = seconds(key.MustFloat64(bc.VictoryTime.Seconds()))
		} else if name == "suit_death_time" {
			bc.SuitDeathTime = seconds(key.MustFloat64(bc.SuitDeathTime.Seconds()))
		} else if name == "boarding_time" {
			bc.BoardingTime = seconds(key.MustFloat64(bc.BoardingTime.Seconds()))
		} else if name == "attack_think_interval_ms" {
			bc.AttackThinkInterval = time.Millisecond * time.Duration(key.MustInt(int(bc.AttackThinkInterval/time.Millisecond)))
		} else if name == "guard_think_interval_ms" {
			bc.GuardThinkInterval = time.Millisecond * time.Duration(key.MustInt(int(bc.GuardThinkInterval/time.Millisecond)))
		} else if name == "section_trigger_slack" {
			bc.SectionTriggerSlack = key.MustFloat64(bc.SectionTriggerSlack)
		} else if name == "level_dir" {
			bc.LevelDir = key.MustString(bc.LevelDir)
		} else if name == "reclaim_every_minutes" {
			bc.ReclaimEveryMinutes = key.MustInt(bc.ReclaimEveryMinutes)
			if bc.ReclaimEveryMinutes < 0 || bc.ReclaimEveryMinutes > 60 {
				gwlog.Panicf("section %s: reclaim_every_minutes must be in [0, 60]", sec.Name())
			}
		} else {
			gwlog.Panicf("section %s has unknown key: %s", sec.Name(), key.Name())
		}
	}
}

func readRange(key *ini.Key) ([2]int, error) {
	vals := key.Ints(",")
	if len(vals) != 2 || vals[0] > vals[1] || vals[0] < 1 {
		return [2]int{}, errors.Errorf("%s: invalid range %q, expect min,max", key.Name(), key.String())
	}
	return [2]int{vals[0], vals[1]}, nil
}

func readBuildingConfig(sec *ini.Section, hood string) (*BuildingConfig, error) {
	bc := &BuildingConfig{
		Hood:            hood,
		Dept:            "c",
		Floors:          1,
		LevelRange:      [2]int{1, 4},
		BossLevelRange:  [2]int{4, 5},
		GuardsPerSecMin: 2,
		GuardsPerSecMax: 3,
	}

	var err error
	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		if name == "dept" {
			bc.Dept = key.MustString(bc.Dept)
		} else if name == "floors" {
			bc.Floors = key.MustInt(bc.Floors)
		} else if name == "level_range" {
			if bc.LevelRange, err = readRange(key); err != nil {
				return nil, errors.Wrapf(err, "section %s", sec.Name())
			}
		} else if name == "boss_level_range" {
			if bc.BossLevelRange, err = readRange(key); err != nil {
				return nil, errors.Wrapf(err, "section %s", sec.Name())
			}
		} else if name == "guards_per_section" {
			var r [2]int
			if r, err = readRange(key); err != nil {
				return nil, errors.Wrapf(err, "section %s", sec.Name())
			}
			bc.GuardsPerSecMin, bc.GuardsPerSecMax = r[0], r[1]
		} else {
			gwlog.Panicf("section %s has unknown key: %s", sec.Name(), key.Name())
		}
	}

	switch bc.Dept {
	case "c", "l", "s", "m":
	default:
		return nil, errors.Errorf("section %s: unknown dept %q", sec.Name(), bc.Dept)
	}
	if bc.Floors < 1 || bc.Floors > 5 {
		return nil, errors.Errorf("section %s: floors must be 1~5, got %d", sec.Name(), bc.Floors)
	}
	return bc, nil
}

func readKVDBConfig(sec *ini.Section, config *KVDBConfig) {
	config.Type = "mem"
	config.StartNodes = common.StringSet{}
	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		if name == "type" {
			config.Type = key.MustString(config.Type)
		} else if name == "url" {
			config.Url = key.MustString(config.Url)
		} else if name == "db" {
			config.DB = key.MustString(config.DB)
		} else if name == "collection" {
			config.Collection = key.MustString(config.Collection)
		} else if strings.HasPrefix(name, "start_nodes_") {
			config.StartNodes.Add(key.MustString(""))
		} else {
			gwlog.Panicf("section %s has unknown key: %s", sec.Name(), key.Name())
		}
	}

	if config.Type == "redis" {
		if config.DB == "" {
			config.DB = "0"
		}
	}
}

func validateKVDBConfig(config *KVDBConfig) error {
	switch config.Type {
	case "mem":
		// nothing to connect
	case "mongodb":
		// must set DB and Collection for mongodb
		if config.Url == "" || config.DB == "" || config.Collection == "" {
			return errors.Errorf("invalid %s KVDB config:\n%s", config.Type, DumpPretty(config))
		}
	case "redis":
		if config.Url == "" {
			return errors.Errorf("invalid %s KVDB config:\n%s", config.Type, DumpPretty(config))
		}
		if _, err := strconv.Atoi(config.DB); err != nil { // make sure db is integer for redis
			return errors.Wrap(err, "redis db must be integer")
		}
	case "redis_cluster":
		if len(config.StartNodes) == 0 {
			return errors.Errorf("must have at least 1 start_nodes for [kvdb].redis_cluster")
		}
		for s := range config.StartNodes {
			if s == "" {
				return errors.Errorf("start_nodes must not be empty")
			}
		}
	case "sqlite":
		if config.Url == "" {
			return errors.Errorf("invalid %s KVDB config: url must be the database file", config.Type)
		}
	default:
		return errors.Errorf("unknown kvdb type: %s", config.Type)
	}
	return nil
}

func checkConfigError(err error, msg string) {
	if err != nil {
		if msg == "" {
			msg = err.Error()
		}
		gwlog.Panicf("read config error: %s", msg)
	}
}

func (bc *BuildingConfig) String() string {
	return fmt.Sprintf("Building<%s|%s|%d floors>", bc.Hood, bc.Dept, bc.Floors)
}
