package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"

	"github.com/skaia3d/sceneforge/asset"
	"github.com/skaia3d/sceneforge/exporter"
	"github.com/skaia3d/sceneforge/gltfconv"
	"github.com/skaia3d/sceneforge/logger"
	"github.com/skaia3d/sceneforge/scene"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] scene.yaml [outdir]\n", os.Args[0])
		flag.PrintDefaults()
	}
	configFile := flag.String("config", "", "yaml config file")
	meshOnly := flag.Bool("meshonly", false, "export mesh objects only")
	meshPerFile := flag.Bool("meshperfile", false, "write each mesh to its own file")
	sampleAnim := flag.Bool("sampleanim", false, "sample all animation as matrices")
	compress := flag.Bool("compress", false, "gzip output documents")
	noCache := flag.Bool("nocache", false, "disable the incremental mesh cache")
	glbOut := flag.String("glb", "", "also write a glb preview to this path")
	logLevel := flag.String("loglevel", "info", "debug|info|warn|error")
	logFile := flag.String("logfile", "", "rotating log file path")
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	input := flag.Arg(0)
	outDir := filepath.Dir(input)
	if flag.NArg() > 1 {
		outDir = flag.Arg(1)
	}

	log := logger.New(*logLevel, *logFile)
	defer log.Sync()

	cfg := exporter.DefaultConfig()
	if *configFile != "" {
		c, err := exporter.LoadConfig(*configFile)
		if err != nil {
			log.Fatal(err)
		}
		cfg = c
	}
	if *meshOnly {
		cfg.MeshOnly = true
	}
	if *meshPerFile {
		cfg.MeshPerFile = true
	}
	if *sampleAnim {
		cfg.SampleAnimation = true
	}
	if *compress {
		cfg.Compress = true
	}
	if *noCache {
		cfg.CacheEnabled = false
	}

	scn, err := scene.Load(input)
	if err != nil {
		log.Fatal(err)
	}

	cache := exporter.LoadExportCache(filepath.Join(outDir, "export_cache.json"))
	store := asset.NewStore(outDir, cfg.Compress)
	store.Minimize = cfg.Minimize
	e := exporter.New(cfg, log, nil, cache)

	doc, err := e.Export(scn, store)
	if err != nil {
		log.Fatal(err)
	}
	log.Infow("scene exported",
		"scene", doc.Name, "objects", len(doc.Objects), "meshes", len(doc.MeshDatas),
		"file", store.ScenePath(doc.Name))

	if *glbOut != "" {
		out := *glbOut
		if strings.ToLower(filepath.Ext(out)) != ".glb" {
			out += ".glb"
		}
		conv := gltfconv.NewConverter(nil)
		gdoc, err := conv.Convert(doc)
		if err != nil {
			log.Fatal(err)
		}
		if err := gltf.SaveBinary(gdoc, out); err != nil {
			log.Fatal(err)
		}
		log.Infow("preview written", "file", out)
	}
}
