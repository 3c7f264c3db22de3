// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package benchmark measures kernels in isolation and ranks the results.
//
// # Architecture
//
//	┌───────────────────────────────────────────────────────────────────┐
//	│                          Suite.Run                                │
//	├───────────────────────────────────────────────────────────────────┤
//	│                                                                   │
//	│  registry order ──► ┌──────────┐   ┌────────────┐   ┌──────────┐  │
//	│                     │  Timer   │──►│  Profiler  │──►│ Recorder │  │
//	│  fixture copies ──► │ • setup  │   │ (optional, │   │ (otel)   │  │
//	│                     │ • warmup │   │  separate  │   └──────────┘  │
//	│                     │ • trials │   │  pass)     │                 │
//	│                     └──────────┘   └────────────┘                 │
//	│                           │                                       │
//	│                           ▼                                       │
//	│                 ┌───────────────────┐     ┌─────────────────┐     │
//	│                 │  Summary (Rank)   │────►│ Console / JSON  │     │
//	│                 └───────────────────┘     │    Reporter     │     │
//	│                                           └─────────────────┘     │
//	└───────────────────────────────────────────────────────────────────┘
//
// Kernels run one at a time. Each gets a freshly built namespace holding
// private copies of the fixture, so neither buffer writes nor setup
// bindings can leak between kernels.
//
// # Failure Policy
//
// A kernel whose setup or process fails is recorded as failed and the run
// continues. Failed kernels are ranked after every measured kernel, are
// shown as FAILED in the report, and contribute nothing to the grand
// total.
//
// # Usage
//
//	suite, err := benchmark.NewSuite(benchmark.DefaultConfig(),
//	    benchmark.WithLogger(logger),
//	)
//	if err != nil {
//	    return err
//	}
//	summary, err := suite.Run(ctx, registry, fx)
//	if err != nil {
//	    return err
//	}
//	fmt.Print(benchmark.Render(summary.Rows, summary.Cols, summary.Trials, summary.Results))
package benchmark
