// sealscript seals .lua files into .lua.sealed for shipping, or generates a key.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/l1jgo/origin/internal/scripting"
)

func main() {
	if len(os.Args) == 3 && os.Args[1] == "genkey" {
		if err := genKey(os.Args[2]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "Usage: sealscript <key-file> <script.lua|dir> [out-dir]")
		fmt.Fprintln(os.Stderr, "       sealscript genkey <key-file>")
		os.Exit(1)
	}

	key, err := scripting.LoadKey(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	src := os.Args[2]
	outDir := ""
	if len(os.Args) > 3 {
		outDir = os.Args[3]
	}

	files, err := collect(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	for _, f := range files {
		out, err := sealFile(key, f, outDir)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Printf("%s -> %s\n", f, out)
	}
	fmt.Printf("Sealed %d scripts\n", len(files))
}

func collect(src string) ([]string, error) {
	info, err := os.Stat(src)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{src}, nil
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			files = append(files, filepath.Join(src, e.Name()))
		}
	}
	return files, nil
}

func sealFile(key []byte, path, outDir string) (string, error) {
	plain, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sealed, err := scripting.Seal(key, plain)
	if err != nil {
		return "", fmt.Errorf("seal %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	if outDir != "" {
		dir = outDir
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
	}
	out := filepath.Join(dir, strings.TrimSuffix(filepath.Base(path), ".lua")+scripting.SealedExt)
	if err := os.WriteFile(out, sealed, 0o644); err != nil {
		return "", err
	}
	return out, nil
}

func genKey(path string) error {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(hex.EncodeToString(key)+"\n"), 0o600); err != nil {
		return err
	}
	fmt.Printf("Wrote key to %s\n", path)
	return nil
}
