package rod

const (
	LoginHTML = `<!DOCTYPE html>
<html>
<head><title>Login</title></head>
<body>
	<form>
		<input id="Username" type="text" />
		<input id="Password" type="password" />
		<button type="submit">Masuk</button>
	</form>
</body>
</html>`

	LandingHTML = `<!DOCTYPE html>
<html>
<body>
	<a class="btn card small-box" href="/epbm/kom201">
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
	<h5>7. Berikan saran untuk masing-masing dosen pengajar</h5>
	<div class="b-rating" id="r1">
		<span class="b-rating-star" data-v="1">*</span>
		<span class="b-rating-star" data-v="2">*</span>
		<span class="b-rating-star" data-v="3">*</span>
		<span class="b-rating-star" data-v="4">*</span>
	</div>
	<textarea id="saran"></textarea>
	<input id="agree" type="checkbox" />
	<button id="next">Selanjutnya</button>
	<button id="save">Simpan EPBM</button>
	<div id="result"></div>
	<div id="events"></div>
	<script>
		document.querySelectorAll('.b-rating-star').forEach(function (s) {
			s.addEventListener('click', function () {
				document.getElementById('r1').dataset.value = s.dataset.v;
			});
		});
		document.getElementById('save').addEventListener('click', function () {
			document.getElementById('result').textContent = 'saved';
		});
		document.getElementById('saran').addEventListener('input', function () {
			document.getElementById('events').textContent = 'input';
		});
	</script>
</body>
</html>`

	CoveredHTML = `<!DOCTYPE html>
<html>
<body>
	<div class="custom-control custom-checkbox" style="position: relative; width: 200px; height: 40px;">
		<input id="agree" class="custom-control-input" type="checkbox"
			style="position: absolute; left: 0; top: 0; width: 20px; height: 20px; margin: 0;" />
		<div style="position: absolute; left: 0; top: 0; width: 200px; height: 40px; z-index: 2; background: #fff;">
			Saya menyatakan pengisian ini jujur
		</div>
	</div>
</body>
</html>`
)
