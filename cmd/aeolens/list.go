// Copyright 2025 Agentic World, LLC (Sherin Thomas)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/agentberlin/aeolens/internal/store"
)

func runListProjects(ctx context.Context, st *store.Store) error {
	projects, err := st.ListProjects(ctx)
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		fmt.Println("No projects found.")
		return nil
	}

	fmt.Printf("%-5s %-30s %-40s %s\n", "ID", "DOMAIN", "URL", "CREATED")
	for _, p := range projects {
		created := time.Unix(p.CreatedAt, 0).Format("2006-01-02 15:04")
		fmt.Printf("%-5d %-30s %-40s %s\n", p.ID, p.Domain, p.URL, created)
	}

	fmt.Printf("\n%d project(s)\n", len(projects))
	return nil
}

func runListScores(ctx context.Context, st *store.Store, projectID uint) error {
	scores, err := st.GetProjectScores(ctx, projectID)
	if err != nil {
		return err
	}
	if len(scores) == 0 {
		fmt.Println("No scores found; run analyze first.")
		return nil
	}

	fmt.Printf("%-6s %-5s %-5s %-5s %-5s %-18s %s\n",
		"GLOBAL", "TECH", "STRUC", "AUTH", "QUAL", "TYPE", "URL")
	for _, s := range scores {
		pageType := s.PageType
		if s.Excluded {
			pageType += " (excluded)"
		}
		fmt.Printf("%-6d %-5d %-5d %-5d %-5d %-18s %s\n",
			s.GlobalScore, s.Technical, s.Structure, s.Authority, s.Quality,
			pageType, s.URL)
	}

	fmt.Printf("\n%d page(s) scored\n", len(scores))
	return nil
}
