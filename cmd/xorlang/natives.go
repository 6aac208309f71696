package main

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/Mr-Ali-Jafari/xorlang/internal/runtime"
)

// registerHostNatives installs the natives that touch the host process:
// terminal input, clocks, HTTP, the filesystem, and the process
// environment. The pure natives (math, print, the Array class) are
// registered by the interpreter itself.
func registerHostNatives(interp *runtime.Interpreter) {
	stdin := bufio.NewReader(os.Stdin)

	interp.RegisterNative("input", func(args []runtime.Value) (runtime.Value, error) {
		if len(args) > 1 {
			return nil, fmt.Errorf("input expects at most 1 argument, got %d", len(args))
		}
		if len(args) == 1 {
			fmt.Fprint(interp.Output(), args[0].String())
		}
		line, err := stdin.ReadString('\n')
		if err != nil && line == "" {
			return runtime.StringVal(""), nil
		}
		// Strip the trailing newline, tolerating CRLF input.
		for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
			line = line[:len(line)-1]
		}
		return runtime.StringVal(line), nil
	})

	interp.RegisterNative("time_now", func(args []runtime.Value) (runtime.Value, error) {
		if len(args) != 0 {
			return nil, fmt.Errorf("time_now expects 0 arguments, got %d", len(args))
		}
		return runtime.IntVal(time.Now().Unix()), nil
	})

	interp.RegisterNative("time_ms", func(args []runtime.Value) (runtime.Value, error) {
		if len(args) != 0 {
			return nil, fmt.Errorf("time_ms expects 0 arguments, got %d", len(args))
		}
		return runtime.IntVal(time.Now().UnixMilli()), nil
	})

	interp.RegisterNative("sleep", func(args []runtime.Value) (runtime.Value, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("sleep expects 1 argument, got %d", len(args))
		}
		secs, ok := runtime.ToFloat64(args[0])
		if !ok || secs < 0 {
			return nil, fmt.Errorf("sleep expects a non-negative number of seconds")
		}
		time.Sleep(time.Duration(secs * float64(time.Second)))
		return runtime.NullVal{}, nil
	})

	interp.RegisterNative("http_get", func(args []runtime.Value) (runtime.Value, error) {
		body, _, err := httpGet(args, "http_get")
		if err != nil {
			return nil, err
		}
		return runtime.StringVal(body), nil
	})

	interp.RegisterNative("http_get_status", func(args []runtime.Value) (runtime.Value, error) {
		_, status, err := httpGet(args, "http_get_status")
		if err != nil {
			return nil, err
		}
		return runtime.IntVal(status), nil
	})

	interp.RegisterNative("file_exists", func(args []runtime.Value) (runtime.Value, error) {
		path, err := stringArg(args, "file_exists")
		if err != nil {
			return nil, err
		}
		_, statErr := os.Stat(path)
		return runtime.BoolVal(statErr == nil), nil
	})

	interp.RegisterNative("file_read", func(args []runtime.Value) (runtime.Value, error) {
		path, err := stringArg(args, "file_read")
		if err != nil {
			return nil, err
		}
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil, fmt.Errorf("Cannot read file '%s'", path)
		}
		return runtime.StringVal(data), nil
	})

	interp.RegisterNative("file_write", func(args []runtime.Value) (runtime.Value, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("file_write expects 2 arguments, got %d", len(args))
		}
		path, ok := args[0].(runtime.StringVal)
		if !ok {
			return nil, fmt.Errorf("file_write expects a string path")
		}
		content, ok := args[1].(runtime.StringVal)
		if !ok {
			return nil, fmt.Errorf("file_write expects string content")
		}
		if err := os.WriteFile(string(path), []byte(content), 0o644); err != nil {
			return nil, fmt.Errorf("Cannot write file '%s'", path)
		}
		return runtime.NullVal{}, nil
	})

	interp.RegisterNative("os_getenv", func(args []runtime.Value) (runtime.Value, error) {
		name, err := stringArg(args, "os_getenv")
		if err != nil {
			return nil, err
		}
		return runtime.StringVal(os.Getenv(name)), nil
	})

	interp.RegisterNative("os_listdir", func(args []runtime.Value) (runtime.Value, error) {
		path, err := stringArg(args, "os_listdir")
		if err != nil {
			return nil, err
		}
		entries, readErr := os.ReadDir(path)
		if readErr != nil {
			return nil, fmt.Errorf("Cannot list directory '%s'", path)
		}
		arr := &runtime.ArrayVal{}
		for _, entry := range entries {
			arr.Elements = append(arr.Elements, runtime.StringVal(entry.Name()))
		}
		return arr, nil
	})
}

func stringArg(args []runtime.Value, name string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%s expects 1 argument, got %d", name, len(args))
	}
	s, ok := args[0].(runtime.StringVal)
	if !ok {
		return "", fmt.Errorf("%s expects a string argument", name)
	}
	return string(s), nil
}

func httpGet(args []runtime.Value, name string) (string, int, error) {
	url, err := stringArg(args, name)
	if err != nil {
		return "", 0, err
	}
	client := &http.Client{Timeout: 30 * time.Second}
	resp, getErr := client.Get(url)
	if getErr != nil {
		return "", 0, fmt.Errorf("HTTP request failed: %s", getErr)
	}
	defer resp.Body.Close()
	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return "", 0, fmt.Errorf("HTTP request failed: %s", readErr)
	}
	return string(body), resp.StatusCode, nil
}
