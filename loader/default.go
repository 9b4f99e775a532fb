package loader

// Default returns the built-in task pack used when no pack directory is
// configured. The progression mirrors a standard early game.
func Default() *Pack {
	tasks := []Task{
		{
			Key:         "gather_wood",
			Title:       "Gather wood",
			Description: "Wood comes first. Find trees and collect logs.",
			Hint:        "Any log type works; punch trees if you have no axe.",
		},
		{
			Key:         "craft_workbench",
			Title:       "Craft a crafting table",
			Description: "Turn collected logs into planks and craft a crafting table.",
		},
		{
			Key:         "craft_wooden_tools",
			Title:       "Craft wooden tools",
			Description: "Use the crafting table to make wooden tools, starting with a pickaxe.",
		},
		{
			Key:         "gather_stone",
			Title:       "Gather stone",
			Description: "Mine stone with the wooden pickaxe.",
		},
		{
			Key:         "craft_stone_tools",
			Title:       "Craft stone tools",
			Description: "Craft better tools from stone, such as a stone pickaxe.",
		},
		{
			Key:         "gather_coal",
			Title:       "Gather coal",
			Description: "Find and mine coal ore.",
			Hint:        "Coal shows up on exposed cliff faces and in caves.",
		},
		{
			Key:         "craft_torches",
			Title:       "Craft torches",
			Description: "Combine sticks and coal into torches.",
		},
		{
			Key:         "build_shelter",
			Title:       "Build a shelter",
			Description: "Build a simple shelter to survive the night.",
		},
		{
			Key:         "gather_food",
			Title:       "Gather food",
			Description: "Find a food source, such as animals or crops.",
		},
	}

	pack := &Pack{
		Profile: Profile{
			Name:        "survival-basics",
			Version:     "1.0",
			Author:      "built-in",
			InitialTask: "gather_wood",
		},
		byKey: map[string]Task{},
	}
	for i := range tasks {
		tasks[i].Order = i + 1
		pack.byKey[tasks[i].Key] = tasks[i]
	}
	pack.Tasks = tasks
	return pack
}
