package config

import (
	"flag"
	"io"
	"os"

	"github.com/dmitrijs2005/passwords/internal/flagx"
)

// flagNames are the short flags owned by this package.
var flagNames = []string{"-d", "-k", "-p", "-l", "-t", "-b", "-o", "-s", "-u", "-w", "-n", "-g", "-e"}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   PostgreSQL DSN
//	-k string   keys file
//	-p int      page size
//	-l string   log level
//	-t string   revision kind (all, password, folder, tag)
//	-b string   backup target before repairing ("", file, s3)
//	-o string   backup directory
//	-s string   backup passphrase
//	-u string   S3 user
//	-w string   S3 password
//	-n string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 endpoint (e.g., "http://127.0.0.1:9000/")
//
// os.Args is filtered with flagx.FilterArgs first, so subcommand names and
// flags owned by other components are ignored.
func parseFlags(config *Config) error {
	args := flagx.FilterArgs(os.Args[1:], flagNames)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.KeysFile, "k", config.KeysFile, "keys file")
	fs.IntVar(&config.PageSize, "p", config.PageSize, "page size")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.Kind, "t", config.Kind, "revision kind")
	fs.StringVar(&config.BackupTarget, "b", config.BackupTarget, "backup target")
	fs.StringVar(&config.BackupDir, "o", config.BackupDir, "backup directory")
	fs.StringVar(&config.BackupPassphrase, "s", config.BackupPassphrase, "backup passphrase")

	fs.StringVar(&config.S3User, "u", config.S3User, "S3 user")
	fs.StringVar(&config.S3Password, "w", config.S3Password, "S3 password")
	fs.StringVar(&config.S3Bucket, "n", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3Endpoint, "e", config.S3Endpoint, "S3 endpoint")

	return fs.Parse(args)
}
