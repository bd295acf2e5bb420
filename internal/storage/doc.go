/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage implements workspace persistence for turtle programs.
// A workspace is a directory holding the program text (program.turtle), a small
// JSON manifest (workspace.json), exported drawings and timestamped backups.
// Program and manifest writes are transactional. Edit history lives in an
// embedded SQLite database at <workspace>/.turtle/history.sqlite which can be
// deleted at any time without losing the program.
package storage
