package common

import (
	"errors"
	"os"
	"path"

	ini "github.com/lars-t-hansen/ini"
)

// Options can be defaulted from $HOME/.darsig.  Flags given on the command line win over the ini
// file; the ini file wins over built-in defaults.

// MT: Constant after initialization
var (
	p     = ini.NewParser()
	store *ini.Store

	dataSource        = p.AddSection("data-source")
	DataSourceDataDir = dataSource.AddString("data-dir")
	DataSourceOutDir  = dataSource.AddString("out-dir")

	daemon             = p.AddSection("daemon")
	DaemonSpoolDir     = daemon.AddString("spool-dir")
	DaemonPasswordFile = daemon.AddString("password-file")
	DaemonKafkaBroker  = daemon.AddString("kafka-broker")
	DaemonKafkaTopic   = daemon.AddString("kafka-topic")
	DaemonKafkaGroup   = daemon.AddString("kafka-group")

	export           = p.AddSection("export")
	ExportDataSource = export.AddString("data-source")
)

func init() {
	home := os.Getenv("HOME")
	if home == "" {
		return
	}
	fn := path.Join(path.Clean(home), ".darsig")
	input, err := os.Open(fn)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			Log.Errorf("Error in trying to open %s: %s", fn, err.Error())
		}
		return
	}
	defer input.Close()
	store, err = p.Parse(input)
	if err != nil {
		Log.Errorf("Error in trying to parse %s: %s", fn, err.Error())
		return
	}
}

func HasDefault(f *ini.Field) bool {
	return store != nil && f.Present(store)
}

func ApplyDefault(sp *string, f *ini.Field) bool {
	if *sp != "" || store == nil || !f.Present(store) {
		return false
	}
	*sp = os.ExpandEnv(f.StringVal(store))
	return true
}
