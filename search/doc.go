// Copyright 2025 Poiesic Systems
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


// Package search retrieves the passages relevant to a question.
//
// The Retriever asks the vector index for the top-k nearest passages and
// keeps only those whose relevance is strictly above a minimum. When no
// passage clears the threshold the result is an empty RetrievedContext,
// which callers treat as "no relevant information" rather than an error.
//
// A RetrievalMonitor can observe each stage: the raw candidates, every
// candidate rejected by the threshold, and the final context.
package search
