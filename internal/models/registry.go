// registry.go
//
// Haven, a mental health support backend: AI chat, intake, community and therapist matching
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of haven.
// haven is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// haven is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with haven.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package models

// PersistentModels returns every schema-managed model, in migration order
func PersistentModels() []interface{} {
	return []interface{}{
		&Conversation{},
		&Message{},
		&Specialist{},
		&AIPrompt{},
		&PromptRevision{},
		&Greeting{},
		&ContentPage{},
		&Resource{},
		&UserProfile{},
		&IntakeQuestion{},
		&IntakeAnswer{},
		&TherapistProfile{},
		&Circle{},
		&CircleMembership{},
		&CommunityPost{},
		&CommunityComment{},
		&CommunityVote{},
		&PostReport{},
		&AudioChunk{},
		&AudioRecording{},
	}
}
