package relayer

import (
	"os"

	"github.com/btcsuite/btclog"

	"github.com/onemoney-protocol/relayer/flows"
	"github.com/onemoney-protocol/relayer/mapping"
	"github.com/onemoney-protocol/relayer/onemoney"
	"github.com/onemoney-protocol/relayer/reconcile"
	"github.com/onemoney-protocol/relayer/sidechain"
	"github.com/onemoney-protocol/relayer/supervisor"
)

// backendLog is the logging backend all subsystem loggers are spun up from.
// A single backend keeps timestamp/level formatting consistent across the
// relayer's independently scheduled flows.
var backendLog = btclog.NewBackend(os.Stdout)

// relrLog is the root relayer package's own logger; subsystems fetch their
// own tagged logger from backendLog and register it through UseLogger.
var relrLog = backendLog.Logger("RELR")

// subsystemLoggers maps each subsystem's log tag to the setter that installs
// a freshly leveled logger into that subsystem, mirroring the registry
// pattern the teacher keeps in its own log.go.
var subsystemLoggers = map[string]func(btclog.Logger){
	"RELR": func(l btclog.Logger) { relrLog = l },
	"SIDC": sidechain.UseLogger,
	"ONEY": onemoney.UseLogger,
	"MAPF": mapping.UseLogger,
	"FLOW": flows.UseLogger,
	"RECO": reconcile.UseLogger,
	"SUPV": supervisor.UseLogger,
}

// SetLogLevels parses a comma-separated "global" level, or a set of
// "SUBSYS=level" pairs, and installs a leveled logger into every known
// subsystem. It is wired to the CLI's --debuglevel flag.
func SetLogLevels(debugLevel string) error {
	if debugLevel == "" {
		return nil
	}

	level, ok := btclog.LevelFromString(debugLevel)
	if ok {
		for tag, setter := range subsystemLoggers {
			logger := backendLog.Logger(tag)
			logger.SetLevel(level)
			setter(logger)
		}
		return nil
	}

	return parsePerSubsystemLevels(debugLevel)
}

func parsePerSubsystemLevels(spec string) error {
	for _, kv := range splitAndTrim(spec, ',') {
		parts := splitAndTrim(kv, '=')
		if len(parts) != 2 {
			return &levelSpecError{spec: kv}
		}

		level, ok := btclog.LevelFromString(parts[1])
		if !ok {
			return &levelSpecError{spec: kv}
		}

		setter, ok := subsystemLoggers[parts[0]]
		if !ok {
			return &levelSpecError{spec: kv}
		}

		logger := backendLog.Logger(parts[0])
		logger.SetLevel(level)
		setter(logger)
	}

	return nil
}

func splitAndTrim(s string, sep byte) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			out = append(out, trimSpace(s[start:i]))
			start = i + 1
		}
	}
	out = append(out, trimSpace(s[start:]))
	return out
}

func trimSpace(s string) string {
	for len(s) > 0 && s[0] == ' ' {
		s = s[1:]
	}
	for len(s) > 0 && s[len(s)-1] == ' ' {
		s = s[:len(s)-1]
	}
	return s
}

type levelSpecError struct {
	spec string
}

func (e *levelSpecError) Error() string {
	return "invalid log level specifier: " + e.spec
}
