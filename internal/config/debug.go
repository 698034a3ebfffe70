package config

import "os"

func IsDebug() bool {
	return os.Getenv("TALKDATA_DEBUG") == "1"
}
