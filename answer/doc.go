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


// Package answer turns retrieved passages into a grounded answer.
//
// The Synthesizer has two paths. Override checks a small ordered table of
// canned responses (identity, capabilities) against a normalised form of
// the question; callers consult it before retrieving anything. Answer
// takes the retrieved context: an empty context yields the persona's
// no-information message without calling the model, otherwise the
// passages are packed into a bounded context block, embedded in the
// grounding template with the literal question, and sent to the chat
// model under a system instruction that restricts it to the passages.
//
// The model's text is returned verbatim. Whether it actually stayed within
// the passages is not checked.
package answer
