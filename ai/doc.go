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


// Package ai provides abstractions for the AI services used by docent.
//
// Two services are needed: an Embedder that turns passages and queries into
// vectors, and a ChatModel that writes the grounded answer. An AIProvider
// bundles both so they share configuration.
//
// # Implementation Packages
//
//   - ai/openai: OpenAI-compatible APIs through langchaingo (OpenAI, Ollama, Groq, vLLM)
//   - ai/mock: deterministic test doubles with call counters
//
// Public constructors in ai/openai return the interfaces. The mock
// constructors return concrete types so tests can inject behavior and
// assert on call counts.
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithHost("http://localhost:11434"))
//	provider, err := openai.NewProvider(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vec, err := provider.Embedder().EmbedQuery(ctx, "What is the capital?")
//	text, err := provider.ChatModel().Generate(ctx, system, prompt)
package ai
