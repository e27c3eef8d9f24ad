// Copyright (c) 2024 - for information on the respective copyright owner
// see the NOTICE file and/or the repository at
// https://github.com/hyperledger-labs/custody-node
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

// Package ledger implements an in-memory, account-model ledger that hosts the custody program.
//
// It provides the pieces of the hosting environment the program relies on: data accounts owned
// by programs, fungible asset mints and holdings with a decimal-checked transfer primitive,
// nested calls between programs with derived-identity authorization, and an append-only log of
// observability events. All changes are made through a Tx, which is applied as a whole on
// Commit or discarded as a whole on Rollback.
package ledger
