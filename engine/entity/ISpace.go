package entity

// ISpace declares the hooks of custom space types
type ISpace interface {
	IEntity
	OnSpaceInit() // Called when initializing space struct, override to initialize custom space fields
	// Space Operations
	OnEntityEnterSpace(entity *Entity) // Called when any entity enters space
	OnEntityLeaveSpace(entity *Entity) // Called when any entity leaves space
	OnEntityMoved(entity *Entity)      // Called when any entity in space changes position
}
