package pools

import "github.com/roach88/derby/internal/model"

// Names is the stable of candidate horse names.
var Names = []string{
	"Thunderbolt Express",
	"Silver Streak",
	"Midnight Fury",
	"Golden Gallop",
	"Whirlwind Whisper",
	"Crimson Comet",
	"Sapphire Sprint",
	"Emerald Enforcer",
	"Platinum Pulse",
	"Velvet Victory",
	"Diamond Dasher",
	"Ruby Runner",
	"Onyx Outlaw",
	"Amber Accelerator",
	"Topaz Typhoon",
	"Jade Jockey",
	"Opal Overdrive",
	"Pearl Powerhouse",
	"Quartz Quicksilver",
	"Cobalt Charger",
	"Indigo Inferno",
	"Magenta Maverick",
	"Turquoise Tornado",
	"Lavender Lightning",
	"Scarlet Sizzle",
	"Azure Avalanche",
	"Ivory Idol",
	"Ebony Echo",
	"Cerulean Cyclone",
	"Sienna Surge",
	"Vermilion Vortex",
	"Chartreuse Champion",
	"Fuchsia Firebolt",
	"Periwinkle Prowess",
	"Mauve Maestro",
	"Aquamarine Ace",
	"Crimson Cascade",
	"Ochre Outburst",
	"Viridian Velocity",
	"Byzantium Blur",
	"Celadon Celerity",
	"Taupe Tempest",
	"Sepia Sprinter",
	"Russet Rocket",
	"Byzantium Blitz",
	"Alabaster Arrow",
	"Copper Comet",
	"Pewter Phantom",
	"Bronze Blaze",
	"Slate Striker",
	"Mahogany Meteor",
	"Hickory Hurricane",
	"Chestnut Charge",
	"Walnut Warrior",
	"Maple Momentum",
	"Cedar Cyclone",
	"Pine Pursuit",
	"Birch Bolt",
	"Ash Accelerate",
	"Oakwood Odyssey",
	"Redwood Rush",
	"Willow Whirlwind",
	"Sycamore Speed",
	"Elm Excalibur",
	"Beech Bullet",
	"Juniper Jet",
	"Magnolia Missile",
	"Dogwood Dash",
	"Sequoia Surge",
	"Hazelnut Hustle",
	"Pecan Powerhouse",
	"Almond Avalanche",
	"Pistachio Pacer",
	"Cashew Crusader",
	"Macadamia Momentum",
	"Coconut Comet",
	"Peanut Prowler",
	"Walnut Whiz",
	"Chestnut Champion",
	"Acorn Ace",
	"Butternut Bolt",
	"Hickory Haste",
	"Pecan Phantom",
	"Almond Arrow",
	"Hazelnut Hurricane",
	"Pistachio Pursuit",
	"Cashew Charger",
	"Macadamia Maverick",
	"Coconut Cyclone",
	"Peanut Powerhouse",
	"Acorn Accelerator",
	"Butternut Blitz",
	"Hickory Hustle",
	"Pecan Pulse",
	"Hazelnut Haste",
	"Pistachio Prowess",
	"Cashew Cascade",
}

// Silks is the catalog of jockey silk color pairs.
var Silks = []model.SilkPair{
	{"#87CEEB", "#FF7F50"},
	{"#98FF98", "#7851A9"},
	{"#FFD700", "#000080"},
	{"#E6E6FA", "#228B22"},
	{"#FFDAB9", "#008080"},
	{"#DC143C", "#C0C0C0"},
	{"#40E0D0", "#FF00FF"},
	{"#808000", "#FA8072"},
	{"#CCCCFF", "#CC5500"},
	{"#FFD700", "#483D8B"},
	{"#FFB6C1", "#4682B4"},
	{"#7FFFD4", "#8B0000"},
	{"#FFE4B5", "#2E8B57"},
	{"#DDA0DD", "#556B2F"},
	{"#B0E0E6", "#8A2BE2"},
	{"#FF6347", "#4682B4"},
	{"#FFDAB9", "#6A5ACD"},
	{"#E0FFFF", "#8B4513"},
	{"#FAFAD2", "#2F4F4F"},
	{"#D8BFD8", "#FF4500"},
	{"#FF69B4", "#4682B4"},
	{"#FFE4E1", "#8B0000"},
	{"#FFFACD", "#2E8B57"},
	{"#E6E6FA", "#556B2F"},
	{"#B0C4DE", "#8A2BE2"},
	{"#FF4500", "#4682B4"},
	{"#FFD700", "#6A5ACD"},
}

// BodyColors is the catalog of horse body colors.
var BodyColors = []model.BodyColor{
	{Label: "Coral", Value: "#FF7F50"},
	{Label: "Sky Blue", Value: "#87CEEB"},
	{Label: "Purple", Value: "#7851A9"},
	{Label: "Mint Green", Value: "#98FF98"},
	{Label: "Navy", Value: "#000080"},
	{Label: "Gold", Value: "#FFD700"},
	{Label: "Forest Green", Value: "#228B22"},
	{Label: "Lavender", Value: "#E6E6FA"},
	{Label: "Teal", Value: "#008080"},
	{Label: "Peach Puff", Value: "#FFDAB9"},
	{Label: "Silver", Value: "#C0C0C0"},
	{Label: "Crimson", Value: "#DC143C"},
	{Label: "Magenta", Value: "#FF00FF"},
	{Label: "Turquoise", Value: "#40E0D0"},
	{Label: "Salmon", Value: "#FA8072"},
	{Label: "Olive", Value: "#808000"},
	{Label: "Brown", Value: "#CC5500"},
	{Label: "Lavender Blush", Value: "#CCCCFF"},
	{Label: "Dark Slate Blue", Value: "#483D8B"},
	{Label: "Steel Blue", Value: "#4682B4"},
	{Label: "Light Pink", Value: "#FFB6C1"},
	{Label: "Dark Red", Value: "#8B0000"},
	{Label: "Aquamarine", Value: "#7FFFD4"},
	{Label: "Sea Green", Value: "#2E8B57"},
	{Label: "Moccasin", Value: "#FFE4B5"},
	{Label: "Dark Olive Green", Value: "#556B2F"},
	{Label: "Plum", Value: "#DDA0DD"},
	{Label: "Blue Violet", Value: "#8A2BE2"},
	{Label: "Powder Blue", Value: "#B0E0E6"},
	{Label: "Tomato", Value: "#FF6347"},
	{Label: "Slate Blue", Value: "#6A5ACD"},
	{Label: "Saddle Brown", Value: "#8B4513"},
	{Label: "Light Cyan", Value: "#E0FFFF"},
	{Label: "Dark Slate Gray", Value: "#2F4F4F"},
	{Label: "Light Yellow", Value: "#FAFAD2"},
	{Label: "Orange Red", Value: "#FF4500"},
	{Label: "Thistle", Value: "#D8BFD8"},
	{Label: "Hot Pink", Value: "#FF69B4"},
	{Label: "Misty Rose", Value: "#FFE4E1"},
	{Label: "Lemon Chiffon", Value: "#FFFACD"},
}
