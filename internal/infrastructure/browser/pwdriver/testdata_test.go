package pwdriver

const (
	LandingHTML = `<!DOCTYPE html>
<html>
<body>
	<a class="btn card small-box" href="/epbm/kom201" data-note="">
		<div class="card-header"><h4>KOM201</h4><p>Basis Data</p></div>
	</a>
	<a class="btn card small-box" href="/epbm/sarpras">
		<div class="card-header"><h4>Sarana dan Prasarana</h4></div>
		<i class="fa fa-check-circle text-success"></i>
	</a>
</body>
</html>`

	FormHTML = `<!DOCTYPE html>
<html>
<body>
	<textarea id="saran"></textarea>
	<input id="agree" type="checkbox" />
	<div class="custom-control custom-checkbox" style="position: relative; width: 200px; height: 40px;">
		<input id="covered" class="custom-control-input" type="checkbox"
			style="position: absolute; left: 0; top: 0; width: 20px; height: 20px; margin: 0;" />
		<div style="position: absolute; left: 0; top: 0; width: 200px; height: 40px; z-index: 2; background: #fff;">
			Saya menyatakan pengisian ini jujur
		</div>
	</div>
	<button id="next">Selanjutnya</button>
	<button id="save">Simpan EPBM</button>
	<div id="result"></div>
	<div id="events"></div>
	<script>
		document.getElementById('save').addEventListener('click', function () {
			document.getElementById('result').textContent = 'saved';
		});
		document.getElementById('saran').addEventListener('input', function () {
			document.getElementById('events').textContent = 'input';
		});
	</script>
</body>
</html>`
)
