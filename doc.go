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


// Package docent answers questions about a country from its reference
// documents, and only from them.
//
// An Assistant ties the pieces together. Initialize loads the persisted
// index or builds it from the document folder. Each question first goes
// through the canned replies ("who are you"), then through retrieval with
// a relevance threshold, and finally to the chat model with the retrieved
// passages as its only source. When retrieval finds nothing relevant the
// assistant says so without calling the model.
//
// Ingest and IngestFile add documents to the live index; questions asked
// meanwhile wait for the update to finish.
package docent
