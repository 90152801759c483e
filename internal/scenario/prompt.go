package scenario

import "fmt"

const promptTemplate = `
You are a Game Master designed to generate a "Teddy Town" Murder Mystery scenario.

Generate a JSON object containing:
1. A Story Title.
2. A Victim (Name).
3. A Solution (Who did it and exactly why).
4. A Sheriff Companion named "Sheriff Paws" (He is NEVER the killer).
5. %[1]d Suspects. Each must have a unique ID, Name, Role (e.g., Baker, Mayor), Personality, and 'isKiller' boolean.
6. %[2]d Clues.

IMPORTANT: Randomly select one of the %[1]d suspects to be the killer.

The output must strictly follow this JSON schema:
{
  "storyTitle": "String",
  "victim": "String",
  "solution": "String",
  "characters": [
    { "id": "String", "name": "String", "role": "String", "personality": "String", "isKiller": Boolean, "spriteColor": "HexCode" }
  ],
  "clues": [
    { "id": "String", "name": "String", "description": "String", "found": Boolean }
  ]
}
`

// Prompt returns the Game Master prompt asking for suspects suspects and clues clues.
func Prompt(suspects, clues int) string {
	return fmt.Sprintf(promptTemplate, suspects, clues)
}
