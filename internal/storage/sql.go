package storage

import (
	_ "embed"
)

const (
	deletePropellerSQL = `DELETE FROM propeller`

	deleteCharacteristicsSQL = `DELETE FROM characteristics`

	insertPropellerSQL = `
INSERT INTO propeller (id,
                       name,
                       diameter_inches)
VALUES (1, ?, ?)`

	selectPropellerSQL = `
SELECT 
    name, 
    diameter_inches, 
    created_at 
FROM propeller 
WHERE 
    id = 1`

	insertCharacteristicsSQL = `
INSERT INTO characteristics (speed,
                             rpm,
                             j,
                             eta,
                             ct,
                             cp,
                             cq,
                             power,
                             torque,
                             thrust)
VALUES `

	selectCharacteristicsSQL = `
SELECT 
    speed, 
    rpm, 
    j, 
    eta, 
    ct, 
    cp, 
    cq, 
    power, 
    torque, 
    thrust 
FROM characteristics 
ORDER BY 
    speed, 
    rpm`

	characteristicsPlaceholder = "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	characteristicsColumns     = 10
)

//go:embed schema.sql
var initSchemaSQL string
