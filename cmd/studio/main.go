package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/adhvyk-ar/studio/config"
	"github.com/adhvyk-ar/studio/internal/domain"
	"github.com/adhvyk-ar/studio/internal/studio/storage"
	"github.com/adhvyk-ar/studio/internal/studio/store"
	"github.com/adhvyk-ar/studio/internal/studio/syncer"
)

// Headless studio runtime: hydrates the project store from durable storage,
// probes the remote service once, and runs one command against the store.
func main() {
	listFlag := flag.Bool("list", false, "list projects")
	createFlag := flag.String("create", "", "create a project with the given name")
	typeFlag := flag.String("type", "WORLD_TRACKING", "tracking type for -create")
	shareFlag := flag.String("share", "", "print a share link for the project id")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	adapter := storage.NewAdapter(cfg.Studio.DataDir)
	defer adapter.Close()

	client := syncer.New(cfg.Studio.ServerURL, adapter, cfg.Studio.ProbeTimeout)

	st := store.New(adapter, client)
	// One-shot process: drain detached writes before the adapter closes.
	defer st.Flush()
	st.SetHydrationTimeout(cfg.Studio.HydrationTimeout)
	st.Hydrate(ctx)
	<-st.Ready()

	if client.Probe(ctx) {
		log.Printf("remote %s reachable", cfg.Studio.ServerURL)
	} else {
		log.Printf("remote %s unreachable, local mode", cfg.Studio.ServerURL)
	}

	switch {
	case *createFlag != "":
		p := st.CreateProject(*createFlag, domain.TrackingType(*typeFlag))
		fmt.Printf("created %s (%s)\n", p.ID, p.Name)

	case *shareFlag != "":
		p := st.ProjectByID(*shareFlag)
		if p == nil {
			p = client.GetProjectByID(ctx, *shareFlag)
		}
		if p == nil {
			log.Printf("project %s not found", *shareFlag)
			os.Exit(1)
		}
		fmt.Println(client.ShareURL(*p))

	case *listFlag:
		for _, p := range st.Projects() {
			fmt.Printf("%s  %-24s %-15s %s  objects=%d\n", p.ID, p.Name, p.Type, p.Status, len(p.SceneObjects))
		}

	default:
		flag.Usage()
	}
}
