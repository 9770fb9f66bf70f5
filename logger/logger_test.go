package logger_test

import (
	"strings"
	"testing"

	"github.com/davecheney/bk/logger"
	"github.com/matryer/is"
)

func TestLogger(t *testing.T) {
	is := is.New(t)
	logger.Clear()

	var w strings.Builder
	logger.Write(&w)
	is.Equal(w.String(), "")

	logger.Log("test", "this is a test")
	logger.Write(&w)
	is.Equal(w.String(), "test: this is a test\n")

	w.Reset()
	logger.Logf("test2", "this is test %d", 2)
	logger.Write(&w)
	is.Equal(w.String(), "test: this is a test\ntest2: this is test 2\n")

	// asking for too many entries is fine
	w.Reset()
	logger.Tail(&w, 100)
	is.Equal(w.String(), "test: this is a test\ntest2: this is test 2\n")

	w.Reset()
	logger.Tail(&w, 1)
	is.Equal(w.String(), "test2: this is test 2\n")

	w.Reset()
	logger.Tail(&w, 0)
	is.Equal(w.String(), "")
}

func TestRepeatedEntries(t *testing.T) {
	is := is.New(t)
	logger.Clear()

	logger.Log("floppy", "crc error")
	logger.Log("floppy", "crc error")
	logger.Log("floppy", "crc error")
	is.Equal(len(logger.Entries()), 1)

	var w strings.Builder
	logger.Write(&w)
	is.Equal(w.String(), "floppy: crc error (repeat x3)\n")
}

func TestEcho(t *testing.T) {
	is := is.New(t)
	logger.Clear()

	var echo strings.Builder
	logger.SetEcho(&echo)
	defer logger.SetEcho(nil)

	logger.Log("ide", "attach")
	is.Equal(echo.String(), "ide: attach\n")
}
