package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const (
	maxSeedBytes = 64 << 10 // 64 KiB - ограничение для тестового корпуса
	maxFuzzInput = 1 << 16
)

var builtinSeeds = []string{
	"",
	"[module app]\n[use builtin]\n\n[lib \"KERNEL32.DLL\"]\nexit=\"ExitProcess\"\n\n[ffi]\nexit=(code:i32)void\n\n[fun.main]\ncall=exit,0",
	"[fun.main]\nconst=x,1\nconst=s,\"hi\"\ncmp=x,1\nif=1,end\nmove=y\nlabel=end\n",
	"[fun.helper]\ndecl=(v:i64,p:ptr)i32\ncall=f,v.ptr,p.bytes\n",
	"[module]\n[lib]\n[ffi]\nbad\n[fun.]\n=\n",
	"\ufeff[module app]\r\n[fun.main]\r\ncall=exit,0\r\n",
	"[module app]\n[fun.main]\ncall=puts,\xff\n[lib \"\xfe\"]\n",
}

func addCorpusSeeds(f *testing.F) {
	for _, s := range builtinSeeds {
		f.Add([]byte(s))
	}
	addTestdataSeeds(f)
}

func addTestdataSeeds(f *testing.F) {
	root := filepath.Join("..", "..", "testdata")
	if _, err := os.Stat(root); err != nil {
		return
	}
	// проходим по дереву testdata, добавляем все *.xil файлы
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() || filepath.Ext(path) != ".xil" {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clampSeed(src))
		return nil
	})
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}

func clampInput(input []byte) []byte {
	if len(input) > maxFuzzInput {
		return append([]byte(nil), input[:maxFuzzInput]...)
	}
	return append([]byte(nil), input...)
}
