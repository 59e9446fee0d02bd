// Copyright 2025 walteh LLC
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

/*
Package stream runs a pattern matcher over a sequence of text chunks and
replaces matches, including matches that straddle chunk boundaries.

	chunk ──► tail+chunk ──► Matcher.Scan ──► confirmed matches ──► output
	              ▲                │
	              └──── held ◄─────┘

🎯 Purpose:
- Emit output as early as possible, holding back only a candidate partial
- Produce exactly what a one-shot replace over the whole input would
- Call replacement callbacks once per match, in stream order

🔄 Flow:
1. Process prepends the held tail to the chunk and scans the buffer
2. Confirmed matches are replaced until the limit is reached
3. Text before the hold offset is emitted; the rest becomes the new tail
4. Finalize scans the tail one last time with no lookahead and closes

🔌 Transports:
Writer and Reader adapt any Transform to io.Writer and io.Reader. They keep
multi-byte UTF-8 sequences together across chunk boundaries. Chain combines
several replacers into one Transform.

🔍 Example:

	r, err := stream.NewString("</head>", "<script/></head>")
	if err != nil {
		return err
	}
	out1, _ := r.Process("<head></he")   // "<head>"
	out2, _ := r.Process("ad><body>")    // "<script/></head><body>"
	out3, _ := r.Finalize()              // ""
*/
package stream
