package core

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// FacesConfig bounds the face table and per-protocol listener defaults.
type FacesConfig struct {
	SoftLimit   int      `yaml:"soft_limit"`
	HardLimit   int      `yaml:"hard_limit"`
	ListenOn    []string `yaml:"listen_on"`
	UnixSockDir string   `yaml:"unix_socket_dir"`
	UnicastPort int      `yaml:"unicast_port"`
	Mtu         int      `yaml:"mtu"`
	TLSCert     string   `yaml:"tls_cert"`
	TLSKey      string   `yaml:"tls_key"`
}

// CsConfig configures the Content Store's capacity and freshness bounds
// (env CCND_CAP, CCND_DEFAULT_TIME_TO_STALE, CCND_MAX_TIME_TO_STALE).
type CsConfig struct {
	Capacity        int           `yaml:"capacity"`
	DefaultTimeToStale time.Duration `yaml:"default_time_to_stale"`
	MaxTimeToStale     time.Duration `yaml:"max_time_to_stale"`

	// PreciousDir, when set, backs PRECIOUS entries with an on-disk
	// key/value tier so bootstrap key objects survive a restart.
	PreciousDir string `yaml:"precious_dir"`
}

// PitConfig configures pacing knobs that are otherwise per-face
// (CCND_DATA_PAUSE_MICROSEC).
type PitConfig struct {
	DataPause time.Duration `yaml:"data_pause"`
}

// SecurityConfig points at the keystore directory and its shroud.
type SecurityConfig struct {
	KeystoreDirectory string `yaml:"keystore_directory"`
}

// CoreConfig holds process-wide knobs: debug bitmask, profiling output
// paths, and the base directory config-relative paths resolve against.
type CoreConfig struct {
	BaseDir      string `yaml:"-"`
	Debug        int    `yaml:"debug"`
	CpuProfile   string `yaml:"-"`
	MemProfile   string `yaml:"-"`
	BlockProfile string `yaml:"-"`
	AutoReg      []string `yaml:"autoreg"`
}

// Config is the daemon's full configuration, loaded from YAML and then
// overridden by environment variables.
type Config struct {
	Core     CoreConfig     `yaml:"core"`
	Faces    FacesConfig    `yaml:"faces"`
	Cs       CsConfig       `yaml:"cs"`
	Pit      PitConfig      `yaml:"pit"`
	Security SecurityConfig `yaml:"security"`
}

// DefaultConfig returns the out-of-the-box configuration: face table
// limits 1024 soft / 256k hard, MTU clamp, pacing default, and the
// standard unicast port.
func DefaultConfig() *Config {
	return &Config{
		Faces: FacesConfig{
			SoftLimit:   1024,
			HardLimit:   256 * 1024,
			UnicastPort: 9695,
			Mtu:         1500,
		},
		Cs: CsConfig{
			Capacity:           4096,
			DefaultTimeToStale: 30 * time.Second,
			MaxTimeToStale:     2 * time.Hour,
		},
		Pit: PitConfig{
			DataPause: 1 * time.Millisecond,
		},
	}
}

// ApplyEnv overrides the configuration with the CCND_* and CCN_LOCAL_*
// environment variables. It is applied after
// YAML load, so the environment always wins, matching the C daemon's
// precedence.
func (c *Config) ApplyEnv() {
	if v, ok := lookupInt("CCN_LOCAL_PORT"); ok {
		c.Faces.UnicastPort = v
	}
	if v := os.Getenv("CCN_LOCAL_SOCKNAME"); v != "" {
		c.Faces.UnixSockDir = v
	}
	if v, ok := lookupInt("CCND_DEBUG"); ok {
		c.Core.Debug = v
	}
	if v, ok := lookupInt("CCND_CAP"); ok {
		c.Cs.Capacity = v
	}
	if v, ok := lookupInt("CCND_MTU"); ok {
		c.Faces.Mtu = clamp(v, 0, 8800)
	}
	if v, ok := lookupInt("CCND_DATA_PAUSE_MICROSEC"); ok {
		c.Pit.DataPause = time.Duration(clamp(v, 1, 1_000_000)) * time.Microsecond
	}
	if v, ok := lookupInt("CCND_DEFAULT_TIME_TO_STALE"); ok {
		c.Cs.DefaultTimeToStale = time.Duration(v) * time.Second
	}
	if v, ok := lookupInt("CCND_MAX_TIME_TO_STALE"); ok {
		c.Cs.MaxTimeToStale = time.Duration(v) * time.Second
	}
	if v := os.Getenv("CCND_LISTEN_ON"); v != "" {
		c.Faces.ListenOn = splitAddrList(v)
	}
	if v := os.Getenv("CCND_AUTOREG"); v != "" {
		c.Core.AutoReg = splitAddrList(v)
	}
	if v := os.Getenv("CCND_KEYSTORE_DIRECTORY"); v != "" {
		c.Security.KeystoreDirectory = v
	}
}

func lookupInt(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// splitAddrList tokenizes a comma/semicolon/whitespace-separated list of
// addresses or URIs, as CCND_LISTEN_ON and CCND_AUTOREG require.
func splitAddrList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
